package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// NCRService defines the interface for non-conformance report business logic
type NCRService interface {
	List(ctx context.Context, scope models.TenantScope) ([]*models.NCR, error)
	Create(ctx context.Context, actorID string, in services.CreateNCRInput, meta services.RequestMeta) (*models.NCR, error)
	UpdateStatus(ctx context.Context, actorID, id, status string, meta services.RequestMeta) (*models.NCR, error)
}

// NCRHandler handles non-conformance report requests
type NCRHandler struct {
	service  NCRService
	ipConfig *pkghttp.IPConfig
}

// NewNCRHandler creates a new NCRHandler
func NewNCRHandler(service NCRService, ipConfig *pkghttp.IPConfig) *NCRHandler {
	return &NCRHandler{service: service, ipConfig: ipConfig}
}

// CreateNCRRequest represents the request body for raising an NCR
type CreateNCRRequest struct {
	ClientID    string     `json:"clientId"`
	EquipmentID string     `json:"equipmentId" validate:"required"`
	Category    string     `json:"category" validate:"required,oneof=MAJOR MINOR OBSERVATION"`
	Description string     `json:"description" validate:"required,min=3"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateNCRStatusRequest represents the request body for moving an NCR through its workflow
type UpdateNCRStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=OPEN IN_PROGRESS CLOSED"`
}

// List handles GET /api/ncrs
func (h *NCRHandler) List(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	ncrs, err := h.service.List(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ncrs)
}

// Create handles POST /api/ncrs
func (h *NCRHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req CreateNCRRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ncr, err := h.service.Create(r.Context(), claims.UserID(), services.CreateNCRInput{
		ClientID:    req.ClientID,
		EquipmentID: req.EquipmentID,
		Category:    req.Category,
		Description: req.Description,
		DueDate:     req.DueDate,
	}, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, ncr)
}

// UpdateStatus handles PATCH /api/ncrs/{id}
func (h *NCRHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req UpdateNCRStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ncr, err := h.service.UpdateStatus(r.Context(), claims.UserID(), chi.URLParam(r, "id"), req.Status, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ncr)
}
