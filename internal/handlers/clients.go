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

// ClientService defines the interface for client business logic
type ClientService interface {
	List(ctx context.Context, scope models.TenantScope) ([]*models.Client, error)
	Get(ctx context.Context, scope models.TenantScope, id string) (*models.Client, error)
	Create(ctx context.Context, actorID string, c *models.Client, meta services.RequestMeta) (*models.Client, error)
}

// ClientHandler handles client organisation requests
type ClientHandler struct {
	service  ClientService
	ipConfig *pkghttp.IPConfig
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(service ClientService, ipConfig *pkghttp.IPConfig) *ClientHandler {
	return &ClientHandler{service: service, ipConfig: ipConfig}
}

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Category string  `json:"category" validate:"required,oneof=MINE INDUSTRIAL CONSTRUCTION"`
	Status   string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED"`
	Notes    *string `json:"notes"`
}

// List handles GET /api/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	clients, err := h.service.List(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, clients)
}

// Get handles GET /api/clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	client, err := h.service.Get(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, client)
}

// Create handles POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req CreateClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.service.Create(r.Context(), claims.UserID(), &models.Client{
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Status:   req.Status,
		Notes:    req.Notes,
	}, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, client)
}
