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

// InspectionService defines the interface for inspection and PFMEA business logic
type InspectionService interface {
	List(ctx context.Context, scope models.TenantScope) ([]*models.Inspection, error)
	Create(ctx context.Context, inspectorID string, in services.CreateInspectionInput, meta services.RequestMeta) (*models.Inspection, error)
	ListPFMEA(ctx context.Context, scope models.TenantScope, inspectionID string) ([]*models.PFMEAItem, error)
	AddPFMEA(ctx context.Context, actorID string, scope models.TenantScope, inspectionID string, in services.CreatePFMEAInput, meta services.RequestMeta) (*models.PFMEAItem, error)
}

// InspectionHandler handles inspection requests
type InspectionHandler struct {
	service  InspectionService
	ipConfig *pkghttp.IPConfig
}

// NewInspectionHandler creates a new InspectionHandler
func NewInspectionHandler(service InspectionService, ipConfig *pkghttp.IPConfig) *InspectionHandler {
	return &InspectionHandler{service: service, ipConfig: ipConfig}
}

// CreateInspectionRequest represents the request body for submitting an inspection
type CreateInspectionRequest struct {
	EquipmentID           string     `json:"equipmentId" validate:"required"`
	Type                  string     `json:"type" validate:"required,min=2"`
	DatePerformed         *time.Time `json:"datePerformed" validate:"required"`
	FindingsText          *string    `json:"findingsText"`
	NonConformance        bool       `json:"nonConformance"`
	CertificateIssued     bool       `json:"certificateIssued"`
	CertificateExpiryDate *time.Time `json:"certificateExpiryDate"`
}

// CreatePFMEARequest represents the request body for adding a PFMEA row.
// Scores outside 1..10 are clamped rather than rejected.
type CreatePFMEARequest struct {
	FailureMode      string  `json:"failureMode" validate:"required"`
	FailureCause     string  `json:"failureCause" validate:"required"`
	FailureEffect    string  `json:"failureEffect" validate:"required"`
	ExistingControls *string `json:"existingControls"`
	Severity         int     `json:"severity"`
	Occurrence       int     `json:"occurrence"`
	Detection        int     `json:"detection"`
}

// List handles GET /api/inspections
func (h *InspectionHandler) List(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	inspections, err := h.service.List(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, inspections)
}

// Create handles POST /api/inspections
func (h *InspectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req CreateInspectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inspection, err := h.service.Create(r.Context(), claims.UserID(), services.CreateInspectionInput{
		EquipmentID:           req.EquipmentID,
		Type:                  req.Type,
		DatePerformed:         *req.DatePerformed,
		FindingsText:          req.FindingsText,
		NonConformance:        req.NonConformance,
		CertificateIssued:     req.CertificateIssued,
		CertificateExpiryDate: req.CertificateExpiryDate,
	}, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, inspection)
}

// ListPFMEA handles GET /api/inspections/{id}/pfmea
func (h *InspectionHandler) ListPFMEA(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListPFMEA(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, items)
}

// AddPFMEA handles POST /api/inspections/{id}/pfmea
func (h *InspectionHandler) AddPFMEA(w http.ResponseWriter, r *http.Request) {
	claims, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req CreatePFMEARequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.service.AddPFMEA(r.Context(), claims.UserID(), scope, chi.URLParam(r, "id"), services.CreatePFMEAInput{
		FailureMode:      req.FailureMode,
		FailureCause:     req.FailureCause,
		FailureEffect:    req.FailureEffect,
		ExistingControls: req.ExistingControls,
		Severity:         req.Severity,
		Occurrence:       req.Occurrence,
		Detection:        req.Detection,
	}, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, item)
}
