package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/monroy-qms/api/internal/models"
)

const (
	DefaultEquipmentPageSize = 20
	codeAttempts             = 3
)

type EquipmentRepository interface {
	List(ctx context.Context, f models.EquipmentFilter) ([]*models.Equipment, int, error)
	GetByID(ctx context.Context, id string) (*models.Equipment, error)
	GetByPublicCode(ctx context.Context, code string) (*models.Equipment, error)
	Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error)
}

// EquipmentQuery is a caller's equipment listing request.
type EquipmentQuery struct {
	Page     int
	PageSize int
	Search   string
	Type     string
	ClientID string
}

type EquipmentService struct {
	repo   EquipmentRepository
	audit  AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

func NewEquipmentService(repo EquipmentRepository, audit AuditRecorder, logger *slog.Logger) *EquipmentService {
	return &EquipmentService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// List returns one page of equipment. CLIENT scopes ignore the clientId filter.
func (s *EquipmentService) List(ctx context.Context, scope models.TenantScope, q EquipmentQuery) (models.Page[*models.Equipment], error) {
	page, pageSize := normalizePage(q.Page, q.PageSize, DefaultEquipmentPageSize)

	items, total, err := s.repo.List(ctx, models.EquipmentFilter{
		ClientID: scope.ClientFilter(strings.TrimSpace(q.ClientID)),
		Type:     strings.TrimSpace(q.Type),
		Search:   strings.TrimSpace(q.Search),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// malformed clientId filter
			return models.NewPage(page, pageSize, 0, []*models.Equipment{}), nil
		}
		s.logger.Error("failed to list equipment", slog.Any("error", err))
		return models.Page[*models.Equipment]{}, models.ErrInternalServer
	}

	return models.NewPage(page, pageSize, total, items), nil
}

func (s *EquipmentService) Get(ctx context.Context, scope models.TenantScope, id string) (*models.Equipment, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get equipment", slog.String("equipment_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if err := scope.Authorize(e.ClientID); err != nil {
		return nil, err
	}
	return e, nil
}

// Create registers equipment with a generated equipment code and public verification code.
func (s *EquipmentService) Create(ctx context.Context, actorID string, e *models.Equipment, meta RequestMeta) (*models.Equipment, error) {
	var created *models.Equipment
	var err error

	for attempt := 0; attempt < codeAttempts; attempt++ {
		e.EquipmentCode = NewEquipmentCode(s.now())
		e.PublicCode, err = NewPublicCode()
		if err != nil {
			s.logger.Error("failed to generate public code", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		created, err = s.repo.Create(ctx, e)
		if !errors.Is(err, models.ErrConflict) {
			break
		}
		s.logger.Warn("equipment code collision, retrying", slog.Int("attempt", attempt+1))
	}
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			return nil, models.NewValidationError("clientId does not reference a client")
		}
		s.logger.Error("failed to create equipment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("equipment created", slog.String("equipment_id", created.ID), slog.String("code", created.EquipmentCode))
	s.audit.Record(ctx, meta.entry(actorID, models.AuditActionEquipmentCreate, models.AuditEntityEquipment, created.ID))
	return created, nil
}
