package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/pkg/auth"
	pkglogger "github.com/monroy-qms/api/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLoginState(ctx context.Context, id string, state models.LoginState) error
	SwapLoginState(ctx context.Context, id string, expected, next models.LoginState) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// TokenRevoker revokes every refresh token of a user.
type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
}

// ClientLookup resolves a client by id.
type ClientLookup interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
}

const maxUserListSize = 500

// CreateUserInput is an administrator's request to open an account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	TenantID *string
}

// UserService handles user business logic
type UserService struct {
	repo        UserRepository
	clients     ClientLookup
	tokens      TokenRevoker
	audit       AuditRecorder
	bcryptCost  int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, clients ClientLookup, tokens TokenRevoker, audit AuditRecorder, bcryptCost int, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		clients:     clients,
		tokens:      tokens,
		audit:       audit,
		bcryptCost:  bcryptCost,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// ListUsers returns accounts, newest first
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx, maxUserListSize, 0)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

// CreateUser opens an account. CLIENT accounts must reference an existing client.
func (s *UserService) CreateUser(ctx context.Context, actorID string, in CreateUserInput, meta RequestMeta) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if !in.Role.Valid() {
		return nil, models.NewValidationError("invalid role")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if in.Role.RequiresTenant() {
		if in.TenantID == nil || *in.TenantID == "" {
			return nil, models.NewValidationError("tenantId is required for CLIENT users")
		}
		if _, err := s.clients.GetByID(ctx, *in.TenantID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("tenantId does not reference a client")
			}
			s.logger.Error("failed to look up tenant", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	} else {
		in.TenantID = nil
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		TenantID:     in.TenantID,
		Status:       models.StatusActive,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("user already exists")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("user_id", created.ID), slog.String("role", string(created.Role)))
	s.auditLogger.LogAdminAction(ctx, models.AuditActionUserCreate, actorID, created.ID, map[string]string{"role": string(created.Role)})
	s.audit.Record(ctx, meta.entry(actorID, models.AuditActionUserCreate, models.AuditEntityUser, created.ID))

	return created, nil
}

// UpdateStatus sets an account's lifecycle state. ACTIVE clears the lockout,
// LOCKED is an indefinite lock lifted only by an administrator, and DISABLED
// also revokes every refresh token.
func (s *UserService) UpdateStatus(ctx context.Context, actorID, id string, status models.AccountStatus, meta RequestMeta) (*models.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	state := user.LoginState()
	state.Status = status
	switch status {
	case models.StatusActive:
		state.FailedLoginCount = 0
		state.LockUntil = nil
	case models.StatusLocked:
		state.LockUntil = nil
	case models.StatusDisabled:
	default:
		return nil, models.NewValidationError("invalid status")
	}

	if err := s.repo.UpdateLoginState(ctx, id, state); err != nil {
		s.logger.Error("failed to update user status", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.ApplyLoginState(state)

	metadata := models.AuditMetadata{"status": string(status)}
	if status == models.StatusDisabled {
		n, err := s.revokeAll(ctx, id)
		if err != nil {
			return nil, err
		}
		metadata["revoked"] = n
	}

	s.logger.Info("user status updated", slog.String("user_id", id), slog.String("status", string(status)))
	s.auditLogger.LogAdminAction(ctx, models.AuditActionUserStatusUpdate, actorID, id, map[string]string{"status": string(status)})
	entry := meta.entry(actorID, models.AuditActionUserStatusUpdate, models.AuditEntityUser, id)
	entry.Metadata = metadata
	s.audit.Record(ctx, entry)

	return user, nil
}

// ResetPassword replaces the password, clears any lockout and signs the user out everywhere.
func (s *UserService) ResetPassword(ctx context.Context, actorID, id, password string, meta RequestMeta) error {
	if err := auth.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.revokeAll(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user password reset", slog.String("user_id", id))
	s.auditLogger.LogAdminAction(ctx, models.AuditActionPasswordReset, actorID, id, nil)
	s.audit.Record(ctx, meta.entry(actorID, models.AuditActionPasswordReset, models.AuditEntityUser, id))
	return nil
}

// EnsureAdmin creates an ADMIN account for email unless one already exists.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}

	if len(password) < auth.MinPasswordLen {
		return false, models.NewValidationError("admin password is too short")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}

	created, err := s.repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("bootstrap administrator created", slog.String("user_id", created.ID))
	return true, nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

func (s *UserService) revokeAll(ctx context.Context, id string) (int64, error) {
	n, err := s.tokens.RevokeAllForUser(ctx, id, s.now())
	if err != nil {
		s.logger.Error("failed to revoke refresh tokens", slog.String("user_id", id), slog.Any("error", err))
		return 0, models.ErrInternalServer
	}
	return n, nil
}
