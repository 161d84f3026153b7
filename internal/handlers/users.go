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

// UserService defines the interface for user business logic
type UserService interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, actorID string, in services.CreateUserInput, meta services.RequestMeta) (*models.User, error)
	UpdateStatus(ctx context.Context, actorID, id string, status models.AccountStatus, meta services.RequestMeta) (*models.User, error)
	ResetPassword(ctx context.Context, actorID, id, password string, meta services.RequestMeta) error
}

// UserHandler handles account administration
type UserHandler struct {
	service  UserService
	ipConfig *pkghttp.IPConfig
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, ipConfig *pkghttp.IPConfig) *UserHandler {
	return &UserHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Role     string  `json:"role" validate:"required,oneof=ADMIN MANAGER INSPECTOR CLIENT"`
	TenantID *string `json:"tenantId"`
}

// UpdateStatusRequest represents the request body for changing an account status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE LOCKED DISABLED"`
}

// ResetPasswordRequest represents the request body for an admin password reset
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role, valid := models.ParseRole(req.Role)
	if !valid {
		pkghttp.WriteBadRequest(w, "role is invalid")
		return
	}

	user, err := h.service.CreateUser(r.Context(), claims.UserID(), services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		TenantID: req.TenantID,
	}, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user.ToResponse())
}

// UpdateStatus handles PATCH /api/users/{id}
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	status, valid := models.ParseAccountStatus(req.Status)
	if !valid {
		pkghttp.WriteBadRequest(w, "Invalid status")
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	user, err := h.service.UpdateStatus(r.Context(), claims.UserID(), id, status, requestMeta(r, h.ipConfig))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user.ToResponse())
}

// ResetPassword handles POST /api/users/{id}/password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.service.ResetPassword(r.Context(), claims.UserID(), id, req.Password, requestMeta(r, h.ipConfig)); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}
