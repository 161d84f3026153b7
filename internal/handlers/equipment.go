package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// EquipmentService defines the interface for equipment business logic
type EquipmentService interface {
	List(ctx context.Context, scope models.TenantScope, q services.EquipmentQuery) (models.Page[*models.Equipment], error)
	Get(ctx context.Context, scope models.TenantScope, id string) (*models.Equipment, error)
	Create(ctx context.Context, actorID string, e *models.Equipment, meta services.RequestMeta) (*models.Equipment, error)
}

// EquipmentHandler handles equipment register requests
type EquipmentHandler struct {
	service  EquipmentService
	ipConfig *pkghttp.IPConfig
}

// NewEquipmentHandler creates a new EquipmentHandler
func NewEquipmentHandler(service EquipmentService, ipConfig *pkghttp.IPConfig) *EquipmentHandler {
	return &EquipmentHandler{service: service, ipConfig: ipConfig}
}

// CreateEquipmentRequest represents the request body for registering equipment
type CreateEquipmentRequest struct {
	ClientID          string   `json:"clientId" validate:"required"`
	SiteID            *string  `json:"siteId"`
	Type              string   `json:"type" validate:"required,min=2"`
	SerialNumber      string   `json:"serialNumber" validate:"required"`
	Manufacturer      *string  `json:"manufacturer"`
	YearOfManufacture *int     `json:"yearOfManufacture" validate:"omitempty,min=1900,max=2100"`
	CountryOfOrigin   *string  `json:"countryOfOrigin"`
	SWL               *float64 `json:"swl" validate:"omitempty,gte=0"`
	MAWP              *float64 `json:"mawp" validate:"omitempty,gte=0"`
	DesignPressure    *float64 `json:"designPressure" validate:"omitempty,gte=0"`
	TestPressure      *float64 `json:"testPressure" validate:"omitempty,gte=0"`
}

// List handles GET /api/equipment?page=&pageSize=&search=&type=&clientId=
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := h.service.List(r.Context(), scope, services.EquipmentQuery{
		Page:     pkghttp.QueryInt(r, "page", 1),
		PageSize: pkghttp.QueryInt(r, "pageSize", services.DefaultEquipmentPageSize),
		Search:   q.Get("search"),
		Type:     q.Get("type"),
		ClientID: q.Get("clientId"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// Get handles GET /api/equipment/{id}
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, e)
}

// Create handles POST /api/equipment
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req CreateEquipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), claims.UserID(), &models.Equipment{
		ClientID:          req.ClientID,
		SiteID:            req.SiteID,
		Type:              strings.TrimSpace(req.Type),
		SerialNumber:      strings.TrimSpace(req.SerialNumber),
		Manufacturer:      req.Manufacturer,
		YearOfManufacture: req.YearOfManufacture,
		CountryOfOrigin:   req.CountryOfOrigin,
		SWL:               req.SWL,
		MAWP:              req.MAWP,
		DesignPressure:    req.DesignPressure,
		TestPressure:      req.TestPressure,
	}, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, e)
}
