package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/monroy-qms/api/internal/auth"
	"github.com/monroy-qms/api/internal/models"
	pkgauth "github.com/monroy-qms/api/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
	testPassword      = "Inspect0r!Pass"
)

type authFixture struct {
	svc      *AuthService
	store    *memUserStore
	tokens   *MockRefreshTokenRepository
	audit    *MockAuditRecorder
	notifier *MockNotifier
	tm       *auth.TokenManager
	now      time.Time
}

func newAuthFixture(t *testing.T, user *models.User, rotation bool) *authFixture {
	t.Helper()

	if user.PasswordHash == "" {
		hash, err := pkgauth.HashPassword(testPassword, pkgauth.MinBcryptCost)
		require.NoError(t, err)
		user.PasswordHash = hash
	}

	f := &authFixture{
		store:    newMemUserStore(user),
		tokens:   &MockRefreshTokenRepository{},
		audit:    &MockAuditRecorder{},
		notifier: &MockNotifier{},
		tm:       auth.NewTokenManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 14*24*time.Hour),
		now:      time.Now(),
	}

	f.svc = NewAuthService(
		f.store.repo(),
		f.tokens,
		f.tm,
		nil,
		f.notifier,
		f.audit,
		AuthPolicy{
			Lockout:          auth.DefaultLockoutPolicy,
			RefreshScanLimit: 25,
			RefreshRotation:  rotation,
			BcryptCost:       pkgauth.MinBcryptCost,
		},
		testLogger(),
		testAuditLogger(),
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

var testMeta = RequestMeta{IP: "203.0.113.7", UserAgent: "go-test"}

// ============================================================================
// Login
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	user := NewTestUser("user-1", "inspector@monroy.test", "Ines Inspector", models.RoleInspector)
	user.FailedLoginCount = 3
	f := newAuthFixture(t, user, false)

	resp, err := f.svc.Login(context.Background(), "  Inspector@Monroy.test ", testPassword, testMeta)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, models.RoleInspector, resp.User.Role)

	require.Len(t, f.tokens.Records, 1)
	assert.True(t, pkgauth.CompareToken(f.tokens.Records[0].TokenHash, resp.RefreshToken))
	assert.NotEqual(t, resp.RefreshToken, f.tokens.Records[0].TokenHash)

	stored := f.store.get()
	assert.Equal(t, 0, stored.FailedLoginCount)
	assert.Equal(t, models.StatusActive, stored.Status)
	require.NotNil(t, stored.LastLoginIP)
	assert.Equal(t, testMeta.IP, *stored.LastLoginIP)

	claims, err := f.tm.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	assert.Contains(t, f.audit.Actions(), models.AuditActionLogin)
}

func TestAuthService_Login_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "A", models.RoleManager), false)

	_, errUnknown := f.svc.Login(context.Background(), "nobody@monroy.test", testPassword, testMeta)
	_, errWrong := f.svc.Login(context.Background(), "a@monroy.test", "wrong-password-1", testMeta)

	assert.ErrorIs(t, errUnknown, models.ErrUnauthorized)
	assert.ErrorIs(t, errWrong, models.ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestAuthService_Login_LocksOnSeventhFailure(t *testing.T) {
	user := NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector)
	f := newAuthFixture(t, user, false)
	f.notifier.On("NotifyAccountLocked", mock.Anything, "a@monroy.test", "Alex", f.now.Add(30*time.Minute)).Return(nil).Once()

	for i := 1; i <= 6; i++ {
		_, err := f.svc.Login(context.Background(), "a@monroy.test", "wrong-password-1", testMeta)
		require.ErrorIs(t, err, models.ErrUnauthorized)
		assert.Equal(t, i, f.store.get().FailedLoginCount)
		assert.Equal(t, models.StatusActive, f.store.get().Status)
	}

	_, err := f.svc.Login(context.Background(), "a@monroy.test", "wrong-password-1", testMeta)
	var locked *models.AccountLockedError
	require.True(t, errors.As(err, &locked))
	require.NotNil(t, locked.Until)
	assert.WithinDuration(t, f.now.Add(30*time.Minute), *locked.Until, time.Second)

	stored := f.store.get()
	assert.Equal(t, models.StatusLocked, stored.Status)
	assert.Equal(t, 7, stored.FailedLoginCount)

	f.notifier.AssertExpectations(t)
	assert.Contains(t, f.audit.Actions(), models.AuditActionAccountLocked)
}

func TestAuthService_Login_LockedRejectsCorrectPassword(t *testing.T) {
	user := NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector)
	until := time.Now().Add(10 * time.Minute)
	user.Status = models.StatusLocked
	user.FailedLoginCount = 7
	user.LockUntil = &until
	f := newAuthFixture(t, user, false)

	_, err := f.svc.Login(context.Background(), "a@monroy.test", testPassword, testMeta)

	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Equal(t, 7, f.store.get().FailedLoginCount)
	assert.Empty(t, f.tokens.Records)
}

func TestAuthService_Login_ExpiredLockAllowsLogin(t *testing.T) {
	user := NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector)
	until := time.Now().Add(-time.Minute)
	user.Status = models.StatusLocked
	user.FailedLoginCount = 7
	user.LockUntil = &until
	f := newAuthFixture(t, user, false)

	_, err := f.svc.Login(context.Background(), "a@monroy.test", testPassword, testMeta)
	require.NoError(t, err)

	stored := f.store.get()
	assert.Equal(t, models.StatusActive, stored.Status)
	assert.Equal(t, 0, stored.FailedLoginCount)
	assert.Nil(t, stored.LockUntil)
}

func TestAuthService_Login_DisabledLeavesCounterAlone(t *testing.T) {
	user := NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector)
	user.Status = models.StatusDisabled
	user.FailedLoginCount = 2
	f := newAuthFixture(t, user, false)

	_, err := f.svc.Login(context.Background(), "a@monroy.test", testPassword, testMeta)

	assert.ErrorIs(t, err, models.ErrAccountDisabled)
	assert.Equal(t, 2, f.store.get().FailedLoginCount)
	assert.Equal(t, models.StatusDisabled, f.store.get().Status)
}

func TestAuthService_Login_NotifierFailureDoesNotChangeOutcome(t *testing.T) {
	user := NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector)
	user.FailedLoginCount = 6
	f := newAuthFixture(t, user, false)
	f.notifier.On("NotifyAccountLocked", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("ses unavailable"))

	_, err := f.svc.Login(context.Background(), "a@monroy.test", "wrong-password-1", testMeta)

	assert.ErrorIs(t, err, models.ErrAccountLocked)
	assert.Equal(t, models.StatusLocked, f.store.get().Status)
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector), false)
	f.tokens.CreateFunc = func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (*models.RefreshToken, error) {
		return nil, errors.New("connection reset")
	}

	_, err := f.svc.Login(context.Background(), "a@monroy.test", testPassword, testMeta)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Login_AdminChangeDuringPasswordCheckWins(t *testing.T) {
	tests := []struct {
		name    string
		status  models.AccountStatus
		wantErr error
	}{
		{"disabled", models.StatusDisabled, models.ErrAccountDisabled},
		{"admin locked", models.StatusLocked, models.ErrAccountLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector), false)

			// The account changes after login has read it but before the outcome is written.
			repo := f.svc.repo.(*MockUserRepository)
			read := repo.GetByEmailFunc
			repo.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
				u, err := read(ctx, email)
				f.store.setStatus(tt.status)
				return u, err
			}

			resp, err := f.svc.Login(context.Background(), "a@monroy.test", testPassword, testMeta)

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.status, f.store.get().Status)
			assert.Empty(t, f.tokens.Records)
			assert.NotContains(t, f.audit.Actions(), models.AuditActionLogin)
		})
	}
}

func TestAuthService_Login_UnknownEmailStillComparesAHash(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleInspector), false)

	var compared []string
	f.svc.compare = func(hash, password string) bool {
		compared = append(compared, hash)
		return pkgauth.ComparePassword(hash, password)
	}

	_, err := f.svc.Login(context.Background(), "nobody@monroy.test", testPassword, testMeta)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	require.Len(t, compared, 1)
	assert.Equal(t, f.svc.dummyHash, compared[0])
	cost, err := bcrypt.Cost([]byte(f.svc.dummyHash))
	require.NoError(t, err)
	assert.Equal(t, pkgauth.MinBcryptCost, cost)
}

// ============================================================================
// Refresh / Logout
// ============================================================================

func login(t *testing.T, f *authFixture) *LoginResponse {
	t.Helper()
	resp, err := f.svc.Login(context.Background(), f.store.get().Email, testPassword, testMeta)
	require.NoError(t, err)
	return resp
}

func TestAuthService_Refresh_Success(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)
	session := login(t, f)

	resp, err := f.svc.Refresh(context.Background(), session.RefreshToken, testMeta)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)

	claims, err := f.tm.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestAuthService_Refresh_RevokedTokenRejected(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)
	session := login(t, f)

	require.NoError(t, f.svc.Logout(context.Background(), session.RefreshToken, testMeta))
	assert.Equal(t, 1, f.tokens.Revoked())

	_, err := f.svc.Refresh(context.Background(), session.RefreshToken, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Refresh_UnregisteredTokenRejected(t *testing.T) {
	user := NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager)
	f := newAuthFixture(t, user, false)

	signed, _, err := f.tm.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), signed, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)
	session := login(t, f)

	_, err := f.svc.Refresh(context.Background(), session.AccessToken, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Refresh_DisabledUserRejected(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)
	session := login(t, f)

	f.store.mu.Lock()
	f.store.user.Status = models.StatusDisabled
	f.store.mu.Unlock()

	_, err := f.svc.Refresh(context.Background(), session.RefreshToken, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Refresh_RotationRevokesPresentedToken(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), true)
	session := login(t, f)

	resp, err := f.svc.Refresh(context.Background(), session.RefreshToken, testMeta)
	require.NoError(t, err)
	require.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, session.RefreshToken, resp.RefreshToken)

	_, err = f.svc.Refresh(context.Background(), session.RefreshToken, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	_, err = f.svc.Refresh(context.Background(), resp.RefreshToken, testMeta)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_ScanIsBounded(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)

	var gotLimit int
	f.tokens.ListFunc = func(ctx context.Context, userID string, now time.Time, limit int) ([]*models.RefreshToken, error) {
		gotLimit = limit
		return nil, nil
	}
	session := login(t, f)

	_, err := f.svc.Refresh(context.Background(), session.RefreshToken, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
	assert.Equal(t, 25, gotLimit)
}

func TestAuthService_SessionsOutsideScanWindowAreRevoked(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)
	f.svc.policy.RefreshScanLimit = 2

	oldest := login(t, f)
	second := login(t, f)
	third := login(t, f)
	assert.Equal(t, 1, f.tokens.Revoked())

	// Logging out the newer sessions must not bring the oldest one back into reach.
	require.NoError(t, f.svc.Logout(context.Background(), third.RefreshToken, testMeta))
	require.NoError(t, f.svc.Logout(context.Background(), second.RefreshToken, testMeta))
	assert.Equal(t, 3, f.tokens.Revoked())

	_, err := f.svc.Refresh(context.Background(), oldest.RefreshToken, testMeta)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Logout_IgnoresGarbage(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)

	assert.NoError(t, f.svc.Logout(context.Background(), "", testMeta))
	assert.NoError(t, f.svc.Logout(context.Background(), "not-a-token", testMeta))
}

func TestAuthService_LogoutAll(t *testing.T) {
	f := newAuthFixture(t, NewTestUser("user-1", "a@monroy.test", "Alex", models.RoleManager), false)
	first := login(t, f)
	second := login(t, f)

	require.NoError(t, f.svc.LogoutAll(context.Background(), "user-1", testMeta))
	assert.Equal(t, 2, f.tokens.Revoked())

	for _, raw := range []string{first.RefreshToken, second.RefreshToken} {
		_, err := f.svc.Refresh(context.Background(), raw, testMeta)
		assert.ErrorIs(t, err, models.ErrInvalidToken)
	}
	assert.Contains(t, f.audit.Actions(), models.AuditActionLogoutAll)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t, NewTestClientUser("user-9", "c@client.test", "client-1"), false)

	me, err := f.svc.Me(context.Background(), "user-9")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, me.Role)
	require.NotNil(t, me.TenantID)
	assert.Equal(t, "client-1", *me.TenantID)

	_, err = f.svc.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
