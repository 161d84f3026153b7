package services

import (
	"context"
	"log/slog"

	"github.com/monroy-qms/api/internal/models"
)

// AuditLogRepository defines the persistence used by AuditService
type AuditLogRepository interface {
	Create(ctx context.Context, entry models.AuditEntry) (*models.AuditLog, error)
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	Count(ctx context.Context) (int, error)
}

// AuditRecorder records one audit trail entry. Recording never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// RequestMeta identifies where a request came from for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func (m RequestMeta) entry(userID, action, entityType, entityID string) models.AuditEntry {
	return models.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IP:         m.IP,
		UserAgent:  m.UserAgent,
	}
}

const (
	DefaultAuditPageSize = 30
	MaxPageSize          = 100
)

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo   AuditLogRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// Record writes entry to the log stream and then to the database.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) {
	s.logger.InfoContext(ctx, "audit event",
		slog.String("action", entry.Action),
		slog.String("user_id", entry.UserID),
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
		slog.String("ip_address", entry.IP),
	)

	if _, err := s.repo.Create(ctx, entry); err != nil {
		// Non-critical: the operation already succeeded
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
	}
}

// List returns one page of the audit trail, newest first.
func (s *AuditService) List(ctx context.Context, page, pageSize int) (models.Page[*models.AuditLog], error) {
	page, pageSize = normalizePage(page, pageSize, DefaultAuditPageSize)

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count audit logs", slog.Any("error", err))
		return models.Page[*models.AuditLog]{}, models.ErrInternalServer
	}

	logs, err := s.repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error("failed to list audit logs", slog.Any("error", err))
		return models.Page[*models.AuditLog]{}, models.ErrInternalServer
	}

	return models.NewPage(page, pageSize, total, logs), nil
}

// normalizePage clamps page to ≥ 1 and pageSize to 1..MaxPageSize.
func normalizePage(page, pageSize, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
