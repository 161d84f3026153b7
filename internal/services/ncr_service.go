package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/monroy-qms/api/internal/models"
)

type NCRRepository interface {
	List(ctx context.Context, clientID *string, limit int) ([]*models.NCR, error)
	Create(ctx context.Context, n *models.NCR) (*models.NCR, error)
	UpdateStatus(ctx context.Context, id, status string, closedAt *time.Time) (*models.NCR, error)
}

// CreateNCRInput raises a non-conformance against equipment. ClientID is
// optional and must match the equipment's client when given.
type CreateNCRInput struct {
	ClientID    string
	EquipmentID string
	Category    string
	Description string
	DueDate     *time.Time
}

type NCRService struct {
	repo      NCRRepository
	equipment EquipmentLookup
	audit     AuditRecorder
	logger    *slog.Logger
	now       func() time.Time
}

func NewNCRService(repo NCRRepository, equipment EquipmentLookup, audit AuditRecorder, logger *slog.Logger) *NCRService {
	return &NCRService{repo: repo, equipment: equipment, audit: audit, logger: logger, now: time.Now}
}

// List returns the most recent NCRs visible in scope.
func (s *NCRService) List(ctx context.Context, scope models.TenantScope) ([]*models.NCR, error) {
	items, err := s.repo.List(ctx, scope.ClientFilter(""), recentListLimit)
	if err != nil {
		s.logger.Error("failed to list ncrs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

func (s *NCRService) Create(ctx context.Context, actorID string, in CreateNCRInput, meta RequestMeta) (*models.NCR, error) {
	eq, err := s.equipment.GetByID(ctx, in.EquipmentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load equipment", slog.String("equipment_id", in.EquipmentID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if in.ClientID != "" && in.ClientID != eq.ClientID {
		return nil, models.NewValidationError("clientId does not match the equipment's client")
	}

	created, err := s.repo.Create(ctx, &models.NCR{
		NCRCode:     NewNCRCode(s.now()),
		ClientID:    eq.ClientID,
		EquipmentID: eq.ID,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Status:      models.NCRStatusOpen,
		DueDate:     in.DueDate,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create ncr", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("ncr created", slog.String("ncr_id", created.ID))
	s.audit.Record(ctx, meta.entry(actorID, models.AuditActionNCRCreate, models.AuditEntityNCR, created.ID))
	return created, nil
}

// UpdateStatus moves an NCR to status. Closing stamps closedAt; any other status clears it.
func (s *NCRService) UpdateStatus(ctx context.Context, actorID, id, status string, meta RequestMeta) (*models.NCR, error) {
	var closedAt *time.Time
	if status == models.NCRStatusClosed {
		now := s.now()
		closedAt = &now
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, closedAt)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update ncr", slog.String("ncr_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	entry := meta.entry(actorID, models.AuditActionNCRUpdate, models.AuditEntityNCR, updated.ID)
	entry.Metadata = models.AuditMetadata{"status": status}
	s.audit.Record(ctx, entry)
	return updated, nil
}
