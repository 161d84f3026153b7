package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/monroy-qms/api/internal/models"
)

type ClientRepository interface {
	List(ctx context.Context, clientID *string) ([]*models.Client, error)
	GetByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
}

type ClientService struct {
	repo   ClientRepository
	audit  AuditRecorder
	logger *slog.Logger
}

func NewClientService(repo ClientRepository, audit AuditRecorder, logger *slog.Logger) *ClientService {
	return &ClientService{repo: repo, audit: audit, logger: logger}
}

// List returns the clients visible in scope.
func (s *ClientService) List(ctx context.Context, scope models.TenantScope) ([]*models.Client, error) {
	clients, err := s.repo.List(ctx, scope.ClientFilter(""))
	if err != nil {
		s.logger.Error("failed to list clients", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return clients, nil
}

func (s *ClientService) Get(ctx context.Context, scope models.TenantScope, id string) (*models.Client, error) {
	if err := scope.Authorize(id); err != nil {
		return nil, err
	}

	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get client", slog.String("client_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return client, nil
}

func (s *ClientService) Create(ctx context.Context, actorID string, c *models.Client, meta RequestMeta) (*models.Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Status == "" {
		c.Status = models.ClientStatusActive
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrBadRequest) {
			return nil, err
		}
		s.logger.Error("failed to create client", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("client created", slog.String("client_id", created.ID))
	s.audit.Record(ctx, meta.entry(actorID, models.AuditActionClientCreate, models.AuditEntityClient, created.ID))
	return created, nil
}
