package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/repositories"
)

const (
	DefaultTrendMonths = 12
	MaxTrendMonths     = 24
)

// DashboardRepository is the aggregate query surface needed by DashboardService.
type DashboardRepository interface {
	Counts(ctx context.Context, clientID *string, now time.Time) (*repositories.DashboardCounts, error)
	InspectionsByMonth(ctx context.Context, clientID *string, from, to time.Time) (map[string]int, error)
}

// DashboardService computes KPI figures and the inspection trend.
type DashboardService struct {
	repo   DashboardRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo DashboardRepository, logger *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, logger: logger, now: time.Now}
}

// KPIs returns the headline counters for scope.
func (s *DashboardService) KPIs(ctx context.Context, scope models.TenantScope) (*models.DashboardKPIs, error) {
	c, err := s.repo.Counts(ctx, scope.ClientFilter(""), s.now())
	if err != nil {
		s.logger.Error("dashboard: failed to compute counts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.DashboardKPIs{
		TotalClients:     c.TotalClients,
		TotalEquipment:   c.TotalEquipment,
		Expiring30:       c.Expiring30,
		Expiring15:       c.Expiring15,
		ExpiredEquipment: c.ExpiredEquipment,
		OpenNCRs:         c.OpenNCRs,
		HighRiskPFMEA:    c.HighRiskPFMEA,
		CompliancePct:    models.CompliancePct(c.Compliant, c.TotalEquipment),
	}, nil
}

// InspectionsByMonth returns one entry per calendar month (UTC) for the last
// months months including the current one, oldest first. months is clamped
// to 1..MaxTrendMonths.
func (s *DashboardService) InspectionsByMonth(ctx context.Context, scope models.TenantScope, months int) ([]models.MonthlyCount, error) {
	if months < 1 {
		months = DefaultTrendMonths
	}
	if months > MaxTrendMonths {
		months = MaxTrendMonths
	}

	now := s.now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := current.AddDate(0, -(months - 1), 0)
	to := current.AddDate(0, 1, 0)

	counts, err := s.repo.InspectionsByMonth(ctx, scope.ClientFilter(""), from, to)
	if err != nil {
		s.logger.Error("dashboard: failed to count inspections by month", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]models.MonthlyCount, 0, months)
	for m := from; m.Before(to); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		out = append(out, models.MonthlyCount{Month: key, Count: counts[key]})
	}
	return out, nil
}
