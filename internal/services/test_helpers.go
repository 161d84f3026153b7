package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/repositories"
	pkglogger "github.com/monroy-qms/api/pkg/logger"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc          func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc       func(ctx context.Context, email string) (*models.User, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc           func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLoginStateFunc func(ctx context.Context, id string, state models.LoginState) error
	SwapLoginStateFunc   func(ctx context.Context, id string, expected, next models.LoginState) error
	UpdatePasswordFunc   func(ctx context.Context, id, passwordHash string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateLoginState(ctx context.Context, id string, state models.LoginState) error {
	if m.UpdateLoginStateFunc != nil {
		return m.UpdateLoginStateFunc(ctx, id, state)
	}
	return nil
}

func (m *MockUserRepository) SwapLoginState(ctx context.Context, id string, expected, next models.LoginState) error {
	if m.SwapLoginStateFunc != nil {
		return m.SwapLoginStateFunc(ctx, id, expected, next)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

// memUserStore backs a MockUserRepository with a single stored user so login
// state updates are visible to later calls.
type memUserStore struct {
	mu   sync.Mutex
	user models.User
}

func newMemUserStore(u *models.User) *memUserStore {
	return &memUserStore{user: *u}
}

func (s *memUserStore) get() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user
	return &u
}

func (s *memUserStore) repo() *MockUserRepository {
	return &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			u := s.get()
			if u.Email != email {
				return nil, models.ErrNotFound
			}
			return u, nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			u := s.get()
			if u.ID != id {
				return nil, models.ErrNotFound
			}
			return u, nil
		},
		UpdateLoginStateFunc: func(ctx context.Context, id string, state models.LoginState) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.user.ApplyLoginState(state)
			return nil
		},
		SwapLoginStateFunc: func(ctx context.Context, id string, expected, next models.LoginState) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.user.Status != expected.Status || !sameTime(s.user.LockUntil, expected.LockUntil) {
				return models.ErrConflict
			}
			s.user.ApplyLoginState(next)
			return nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.user.PasswordHash = passwordHash
			s.user.FailedLoginCount = 0
			s.user.LockUntil = nil
			if s.user.Status == models.StatusLocked {
				s.user.Status = models.StatusActive
			}
			return nil
		},
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// setStatus changes the stored status as an administrator would.
func (s *memUserStore) setStatus(status models.AccountStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Status = status
}

// MockRefreshTokenRepository is an in-memory refresh token registry.
type MockRefreshTokenRepository struct {
	mu      sync.Mutex
	Records []*models.RefreshToken

	CreateFunc func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (*models.RefreshToken, error)
	ListFunc   func(ctx context.Context, userID string, now time.Time, limit int) ([]*models.RefreshToken, error)
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (*models.RefreshToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, tokenHash, expiresAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	m.Records = append(m.Records, rec)
	return rec, nil
}

func (m *MockRefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time, limit int) ([]*models.RefreshToken, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, now, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.RefreshToken, 0)
	for i := len(m.Records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.Records[i]
		if rec.UserID == userID && rec.Live(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.Records {
		if rec.ID == id && rec.RevokedAt == nil {
			at := now
			rec.RevokedAt = &at
		}
	}
	return nil
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, rec := range m.Records {
		if rec.UserID == userID && rec.RevokedAt == nil {
			at := now
			rec.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *MockRefreshTokenRepository) RevokeBeyond(ctx context.Context, userID string, keep int, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	live := 0
	for i := len(m.Records) - 1; i >= 0; i-- {
		rec := m.Records[i]
		if rec.UserID != userID || rec.RevokedAt != nil {
			continue
		}
		if rec.Live(now) && live < keep {
			live++
			continue
		}
		at := now
		rec.RevokedAt = &at
		n++
	}
	return n, nil
}

// Revoked counts revoked records.
func (m *MockRefreshTokenRepository) Revoked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.Records {
		if rec.RevokedAt != nil {
			n++
		}
	}
	return n
}

// MockAuditRecorder collects recorded entries.
type MockAuditRecorder struct {
	mu      sync.Mutex
	Entries []models.AuditEntry
}

func (m *MockAuditRecorder) Record(ctx context.Context, entry models.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

// Actions returns the recorded actions in order.
func (m *MockAuditRecorder) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Action)
	}
	return out
}

// MockNotifier implements Notifier with testify/mock expectations.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAccountLocked(ctx context.Context, email, name string, until time.Time) error {
	args := m.Called(ctx, email, name, until)
	return args.Error(0)
}

// MockClientRepository implements ClientRepository for testing
type MockClientRepository struct {
	ListFunc    func(ctx context.Context, clientID *string) ([]*models.Client, error)
	GetByIDFunc func(ctx context.Context, id string) (*models.Client, error)
	CreateFunc  func(ctx context.Context, c *models.Client) (*models.Client, error)
}

func (m *MockClientRepository) List(ctx context.Context, clientID *string) ([]*models.Client, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, clientID)
	}
	return []*models.Client{}, nil
}

func (m *MockClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockClientRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil, models.ErrInternalServer
}

// MockEquipmentRepository implements EquipmentRepository for testing
type MockEquipmentRepository struct {
	ListFunc            func(ctx context.Context, f models.EquipmentFilter) ([]*models.Equipment, int, error)
	GetByIDFunc         func(ctx context.Context, id string) (*models.Equipment, error)
	GetByPublicCodeFunc func(ctx context.Context, code string) (*models.Equipment, error)
	CreateFunc          func(ctx context.Context, e *models.Equipment) (*models.Equipment, error)
}

func (m *MockEquipmentRepository) List(ctx context.Context, f models.EquipmentFilter) ([]*models.Equipment, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return []*models.Equipment{}, 0, nil
}

func (m *MockEquipmentRepository) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockEquipmentRepository) GetByPublicCode(ctx context.Context, code string) (*models.Equipment, error) {
	if m.GetByPublicCodeFunc != nil {
		return m.GetByPublicCodeFunc(ctx, code)
	}
	return nil, models.ErrNotFound
}

func (m *MockEquipmentRepository) Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil, models.ErrInternalServer
}

// MockInspectionRepository implements InspectionRepository for testing
type MockInspectionRepository struct {
	ListFunc               func(ctx context.Context, clientID *string, limit int) ([]*models.Inspection, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.Inspection, error)
	LatestForEquipmentFunc func(ctx context.Context, equipmentID string) (*models.Inspection, error)
	CreateFunc             func(ctx context.Context, in *models.Inspection) (*models.Inspection, error)
}

func (m *MockInspectionRepository) List(ctx context.Context, clientID *string, limit int) ([]*models.Inspection, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, clientID, limit)
	}
	return []*models.Inspection{}, nil
}

func (m *MockInspectionRepository) GetByID(ctx context.Context, id string) (*models.Inspection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockInspectionRepository) LatestForEquipment(ctx context.Context, equipmentID string) (*models.Inspection, error) {
	if m.LatestForEquipmentFunc != nil {
		return m.LatestForEquipmentFunc(ctx, equipmentID)
	}
	return nil, models.ErrNotFound
}

func (m *MockInspectionRepository) Create(ctx context.Context, in *models.Inspection) (*models.Inspection, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return nil, models.ErrInternalServer
}

// MockPFMEARepository implements PFMEARepository for testing
type MockPFMEARepository struct {
	ListByInspectionFunc func(ctx context.Context, inspectionID string) ([]*models.PFMEAItem, error)
	CreateFunc           func(ctx context.Context, p *models.PFMEAItem) (*models.PFMEAItem, error)
}

func (m *MockPFMEARepository) ListByInspection(ctx context.Context, inspectionID string) ([]*models.PFMEAItem, error) {
	if m.ListByInspectionFunc != nil {
		return m.ListByInspectionFunc(ctx, inspectionID)
	}
	return []*models.PFMEAItem{}, nil
}

func (m *MockPFMEARepository) Create(ctx context.Context, p *models.PFMEAItem) (*models.PFMEAItem, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	p.ID = uuid.NewString()
	return p, nil
}

// MockNCRRepository implements NCRRepository for testing
type MockNCRRepository struct {
	ListFunc         func(ctx context.Context, clientID *string, limit int) ([]*models.NCR, error)
	CreateFunc       func(ctx context.Context, n *models.NCR) (*models.NCR, error)
	UpdateStatusFunc func(ctx context.Context, id, status string, closedAt *time.Time) (*models.NCR, error)
}

func (m *MockNCRRepository) List(ctx context.Context, clientID *string, limit int) ([]*models.NCR, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, clientID, limit)
	}
	return []*models.NCR{}, nil
}

func (m *MockNCRRepository) Create(ctx context.Context, n *models.NCR) (*models.NCR, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, n)
	}
	n.ID = uuid.NewString()
	return n, nil
}

func (m *MockNCRRepository) UpdateStatus(ctx context.Context, id, status string, closedAt *time.Time) (*models.NCR, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, closedAt)
	}
	return nil, models.ErrNotFound
}

// MockDashboardRepository implements DashboardRepository for testing
type MockDashboardRepository struct {
	CountsFunc             func(ctx context.Context, clientID *string, now time.Time) (*repositories.DashboardCounts, error)
	InspectionsByMonthFunc func(ctx context.Context, clientID *string, from, to time.Time) (map[string]int, error)
}

func (m *MockDashboardRepository) Counts(ctx context.Context, clientID *string, now time.Time) (*repositories.DashboardCounts, error) {
	if m.CountsFunc != nil {
		return m.CountsFunc(ctx, clientID, now)
	}
	return &repositories.DashboardCounts{}, nil
}

func (m *MockDashboardRepository) InspectionsByMonth(ctx context.Context, clientID *string, from, to time.Time) (map[string]int, error) {
	if m.InspectionsByMonthFunc != nil {
		return m.InspectionsByMonthFunc(ctx, clientID, from, to)
	}
	return map[string]int{}, nil
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc func(ctx context.Context, entry models.AuditEntry) (*models.AuditLog, error)
	ListFunc   func(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	CountFunc  func(ctx context.Context) (int, error)
}

func (m *MockAuditLogRepository) Create(ctx context.Context, entry models.AuditEntry) (*models.AuditLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	return &models.AuditLog{ID: uuid.NewString(), Action: entry.Action}, nil
}

func (m *MockAuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogRepository) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}

func strPtr(s string) *string {
	return &s
}

// NewTestUser builds an ACTIVE account
func NewTestUser(id, email, name string, role models.Role) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      role,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestUserWithPassword builds an ACTIVE account with a password hash
func NewTestUserWithPassword(id, email, name, passwordHash string) *models.User {
	user := NewTestUser(id, email, name, models.RoleInspector)
	user.PasswordHash = passwordHash
	return user
}

// NewTestClientUser builds a CLIENT account bound to tenantID
func NewTestClientUser(id, email, tenantID string) *models.User {
	user := NewTestUser(id, email, "Client User", models.RoleClient)
	user.TenantID = strPtr(tenantID)
	return user
}
