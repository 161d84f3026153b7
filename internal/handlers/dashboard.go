package handlers

import (
	"context"
	"net/http"

	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// DashboardService defines the interface for dashboard aggregates
type DashboardService interface {
	KPIs(ctx context.Context, scope models.TenantScope) (*models.DashboardKPIs, error)
	InspectionsByMonth(ctx context.Context, scope models.TenantScope, months int) ([]models.MonthlyCount, error)
}

// DashboardHandler serves the dashboard counters
type DashboardHandler struct {
	service DashboardService
}

func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// KPIs handles GET /api/dashboard/kpis
func (h *DashboardHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	kpis, err := h.service.KPIs(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, kpis)
}

// InspectionsByMonth handles GET /api/dashboard/inspections-by-month?months=
func (h *DashboardHandler) InspectionsByMonth(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	months := pkghttp.QueryInt(r, "months", services.DefaultTrendMonths)
	series, err := h.service.InspectionsByMonth(r.Context(), scope, months)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, series)
}
