package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/monroy-qms/api/internal/models"
)

// VerifyResult is the public view of a scanned verification code.
type VerifyResult struct {
	Valid            bool               `json:"valid"`
	Equipment        *models.Equipment  `json:"equipment"`
	LatestInspection *models.Inspection `json:"latestInspection"`
}

type publicEquipmentLookup interface {
	GetByPublicCode(ctx context.Context, code string) (*models.Equipment, error)
}

type latestInspectionLookup interface {
	LatestForEquipment(ctx context.Context, equipmentID string) (*models.Inspection, error)
}

// VerifyService answers unauthenticated verification-code lookups.
type VerifyService struct {
	equipment   publicEquipmentLookup
	inspections latestInspectionLookup
	logger      *slog.Logger
}

func NewVerifyService(equipment publicEquipmentLookup, inspections latestInspectionLookup, logger *slog.Logger) *VerifyService {
	return &VerifyService{equipment: equipment, inspections: inspections, logger: logger}
}

// Verify returns the equipment behind code and its latest inspection, if any.
// Unknown codes return models.ErrNotFound.
func (s *VerifyService) Verify(ctx context.Context, code string) (*VerifyResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, models.ErrNotFound
	}

	eq, err := s.equipment.GetByPublicCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up public code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	latest, err := s.inspections.LatestForEquipment(ctx, eq.ID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to load latest inspection", slog.String("equipment_id", eq.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		latest = nil
	}

	return &VerifyResult{Valid: true, Equipment: eq, LatestInspection: latest}, nil
}
