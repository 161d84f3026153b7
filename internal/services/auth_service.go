package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/monroy-qms/api/internal/auth"
	"github.com/monroy-qms/api/internal/models"
	pkgauth "github.com/monroy-qms/api/pkg/auth"
	pkglogger "github.com/monroy-qms/api/pkg/logger"
)

// RefreshTokenRepository defines the refresh token registry
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (*models.RefreshToken, error)
	ListActiveByUser(ctx context.Context, userID string, now time.Time, limit int) ([]*models.RefreshToken, error)
	Revoke(ctx context.Context, id string, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	RevokeBeyond(ctx context.Context, userID string, keep int, now time.Time) (int64, error)
}

// AuthPolicy holds the tunables of the login and refresh flows.
type AuthPolicy struct {
	Lockout          auth.LockoutPolicy
	RefreshScanLimit int
	RefreshRotation  bool
	BcryptCost       int
}

// AuthService handles authentication business logic
type AuthService struct {
	repo        UserRepository
	tokens      RefreshTokenRepository
	tm          *auth.TokenManager
	timing      *auth.TimingDelay
	notifier    Notifier
	audit       AuditRecorder
	policy      AuthPolicy
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time

	// dummyHash is compared against when the email is unknown so that path
	// costs one bcrypt comparison like a wrong password does.
	dummyHash string
	compare   func(hash, password string) bool
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	tokens RefreshTokenRepository,
	tm *auth.TokenManager,
	timing *auth.TimingDelay,
	notifier Notifier,
	audit AuditRecorder,
	policy AuthPolicy,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	if policy.RefreshScanLimit < 1 {
		policy.RefreshScanLimit = 25
	}
	if policy.Lockout.Threshold < 1 {
		policy.Lockout = auth.DefaultLockoutPolicy
	}
	dummyHash, err := pkgauth.HashPassword("unknown-account-placeholder", policy.BcryptCost)
	if err != nil {
		logger.Error("failed to prepare placeholder password hash", slog.Any("error", err))
	}
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		tm:          tm,
		timing:      timing,
		notifier:    notifier,
		audit:       audit,
		policy:      policy,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
		dummyHash:   dummyHash,
		compare:     pkgauth.ComparePassword,
	}
}

// SessionUser is the account summary returned with a login.
type SessionUser struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	TenantID *string     `json:"tenantId,omitempty"`
}

// LoginResponse represents the response from a successful login
type LoginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *SessionUser `json:"user"`
}

// RefreshResponse carries a new access token, and a new refresh token when rotation is enabled.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Login authenticates a user and returns tokens.
//
// Failures are one of ErrUnauthorized (unknown email or wrong password),
// ErrAccountDisabled, *models.AccountLockedError or ErrInternalServer.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResponse, error) {
	start := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
				Event:         "login",
				Email:         email,
				IPAddress:     meta.IP,
				FailureReason: "invalid_credentials",
			})
			s.compare(s.dummyHash, password)
			s.timing.WaitFrom(ctx, start, false)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load user for login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.now()
	before := user.LoginState()

	if err := auth.CheckLoginAllowed(before, now); err != nil {
		s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
			Event:         "login",
			UserID:        user.ID,
			Email:         email,
			IPAddress:     meta.IP,
			FailureReason: failureReason(err),
			LockUntil:     before.LockUntil,
		})
		s.recordLoginFailed(ctx, user.ID, meta, failureReason(err))
		s.timing.WaitFrom(ctx, start, false)
		return nil, err
	}

	ok := s.compare(user.PasswordHash, password)
	after := auth.ApplyLoginOutcome(before, ok, meta.IP, now, s.policy.Lockout)

	if err := s.repo.SwapLoginState(ctx, user.ID, before, after); err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.timing.WaitFrom(ctx, start, false)
			return nil, s.refuseChangedAccount(ctx, user.ID, email, meta)
		}
		s.logger.Error("failed to update login state", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !ok {
		s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
			Event:         "login",
			UserID:        user.ID,
			Email:         email,
			IPAddress:     meta.IP,
			FailureReason: "invalid_credentials",
			FailedCount:   after.FailedLoginCount,
			LockUntil:     after.LockUntil,
		})
		s.recordLoginFailed(ctx, user.ID, meta, "invalid_credentials")

		if auth.JustLocked(before, after) {
			s.onLocked(ctx, user, after, meta)
			s.timing.WaitFrom(ctx, start, false)
			return nil, &models.AccountLockedError{Until: after.LockUntil}
		}

		s.timing.WaitFrom(ctx, start, false)
		return nil, models.ErrUnauthorized
	}

	user.ApplyLoginState(after)

	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.issueRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
		Event:     "login",
		UserID:    user.ID,
		Email:     email,
		IPAddress: meta.IP,
		Success:   true,
	})
	s.audit.Record(ctx, meta.entry(user.ID, models.AuditActionLogin, models.AuditEntityUser, user.ID))

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: &SessionUser{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			TenantID: user.TenantID,
		},
	}, nil
}

// refuseChangedAccount handles a login whose account status or lock changed
// while the password was being checked. The attempt is refused with the
// current state's error, or ErrUnauthorized if the account is usable again.
func (s *AuthService) refuseChangedAccount(ctx context.Context, userID, email string, meta RequestMeta) error {
	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to reload user after concurrent change", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	reason := "account_changed"
	refusal := error(models.ErrUnauthorized)
	if err := auth.CheckLoginAllowed(current.LoginState(), s.now()); err != nil {
		reason = failureReason(err)
		refusal = err
	}

	s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
		Event:         "login",
		UserID:        userID,
		Email:         email,
		IPAddress:     meta.IP,
		FailureReason: reason,
	})
	s.recordLoginFailed(ctx, userID, meta, reason)
	return refusal
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, models.ErrAccountLocked):
		return "account_locked"
	default:
		return "invalid_credentials"
	}
}

func (s *AuthService) recordLoginFailed(ctx context.Context, userID string, meta RequestMeta, reason string) {
	entry := meta.entry(userID, models.AuditActionLoginFailed, models.AuditEntityUser, userID)
	entry.Metadata = models.AuditMetadata{"reason": reason}
	s.audit.Record(ctx, entry)
}

// onLocked records the lock and notifies the owner. Notification is best effort.
func (s *AuthService) onLocked(ctx context.Context, user *models.User, after models.LoginState, meta RequestMeta) {
	entry := meta.entry(user.ID, models.AuditActionAccountLocked, models.AuditEntityUser, user.ID)
	entry.Metadata = models.AuditMetadata{
		"failedLoginCount": after.FailedLoginCount,
		"lockUntil":        after.LockUntil.UTC().Format(time.RFC3339),
	}
	s.audit.Record(ctx, entry)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAccountLocked(ctx, user.Email, user.Name, *after.LockUntil); err != nil {
		s.logger.Warn("lockout notification failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

// issueRefreshToken signs a refresh token and stores its hash in the registry.
func (s *AuthService) issueRefreshToken(ctx context.Context, user *models.User) (string, error) {
	token, expiresAt, err := s.tm.GenerateRefreshToken(user)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	hash, err := pkgauth.HashToken(token, s.policy.BcryptCost)
	if err != nil {
		s.logger.Error("failed to hash refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if _, err := s.tokens.Create(ctx, user.ID, hash, expiresAt); err != nil {
		s.logger.Error("failed to store refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	// Only the newest RefreshScanLimit records can ever match a scan, so
	// older ones are revoked rather than left to drift back into the window.
	if _, err := s.tokens.RevokeBeyond(ctx, user.ID, s.policy.RefreshScanLimit, s.now()); err != nil {
		s.logger.Error("failed to revoke refresh tokens outside the scan window", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	return token, nil
}

// findRefreshRecord scans the most recent live registry rows of userID for
// one whose hash matches raw.
func (s *AuthService) findRefreshRecord(ctx context.Context, userID, raw string) (*models.RefreshToken, error) {
	records, err := s.tokens.ListActiveByUser(ctx, userID, s.now(), s.policy.RefreshScanLimit)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if pkgauth.CompareToken(rec.TokenHash, raw) {
			return rec, nil
		}
	}
	return nil, nil
}

// Refresh exchanges a registered refresh token for a new access token. Every
// rejection is ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, raw string, meta RequestMeta) (*RefreshResponse, error) {
	claims, err := s.tm.ValidateRefreshToken(raw)
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to load user for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := auth.CheckLoginAllowed(user.LoginState(), s.now()); err != nil {
		s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
			Event:         "refresh",
			UserID:        user.ID,
			IPAddress:     meta.IP,
			FailureReason: failureReason(err),
		})
		return nil, models.ErrInvalidToken
	}

	record, err := s.findRefreshRecord(ctx, user.ID, raw)
	if err != nil {
		s.logger.Error("failed to scan refresh tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if record == nil {
		s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
			Event:         "refresh",
			UserID:        user.ID,
			IPAddress:     meta.IP,
			FailureReason: "token_not_registered",
		})
		return nil, models.ErrInvalidToken
	}

	accessToken, err := s.tm.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := &RefreshResponse{AccessToken: accessToken}

	if s.policy.RefreshRotation {
		if err := s.tokens.Revoke(ctx, record.ID, s.now()); err != nil {
			s.logger.Error("failed to revoke rotated refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		next, err := s.issueRefreshToken(ctx, user)
		if err != nil {
			return nil, err
		}
		resp.RefreshToken = next
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))
	return resp, nil
}

// Logout revokes the registry record matching raw. Unknown, expired or
// malformed tokens are ignored so logout always succeeds for the caller.
func (s *AuthService) Logout(ctx context.Context, raw string, meta RequestMeta) error {
	if raw == "" {
		return nil
	}

	claims, err := s.tm.ValidateRefreshToken(raw)
	if err != nil {
		return nil
	}

	record, err := s.findRefreshRecord(ctx, claims.Subject, raw)
	if err != nil {
		s.logger.Error("failed to scan refresh tokens", slog.String("user_id", claims.Subject), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if record == nil {
		return nil
	}

	if err := s.tokens.Revoke(ctx, record.ID, s.now()); err != nil {
		s.logger.Error("failed to revoke refresh token", slog.String("user_id", claims.Subject), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuth(ctx, pkglogger.AuthEvent{
		Event:     "logout",
		UserID:    claims.Subject,
		IPAddress: meta.IP,
		Success:   true,
	})
	s.audit.Record(ctx, meta.entry(claims.Subject, models.AuditActionLogout, models.AuditEntityUser, claims.Subject))
	return nil
}

// LogoutAll revokes every refresh token of userID ("sign out everywhere").
func (s *AuthService) LogoutAll(ctx context.Context, userID string, meta RequestMeta) error {
	n, err := s.tokens.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		s.logger.Error("failed to revoke all user tokens", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	entry := meta.entry(userID, models.AuditActionLogoutAll, models.AuditEntityUser, userID)
	entry.Metadata = models.AuditMetadata{"revoked": n}
	s.audit.Record(ctx, entry)

	s.logger.Info("user logged out from all sessions", slog.String("user_id", userID), slog.Int64("revoked", n))
	return nil
}

// Me returns the account behind the current access token.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to load current user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user.ToResponse(), nil
}
