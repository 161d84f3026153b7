package handlers

import (
	"context"
	"net/http"

	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// AuditLogService defines the interface for reading the audit trail
type AuditLogService interface {
	List(ctx context.Context, page, pageSize int) (models.Page[*models.AuditLog], error)
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	service AuditLogService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditLogService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /api/audit-logs?page=&pageSize= (admin only)
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(),
		pkghttp.QueryInt(r, "page", 1),
		pkghttp.QueryInt(r, "pageSize", services.DefaultAuditPageSize),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}
