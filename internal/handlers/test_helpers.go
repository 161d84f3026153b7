package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/monroy-qms/api/internal/auth"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithClaimsContext attaches access claims for the given caller
func WithClaimsContext(req *http.Request, userID string, role models.Role, tenantID *string) *http.Request {
	claims := &models.AccessClaims{
		Type:             models.TokenTypeAccess,
		Role:             role,
		TenantID:         tenantID,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc     func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.LoginResponse, error)
	RefreshFunc   func(ctx context.Context, refreshToken string, meta services.RequestMeta) (*services.RefreshResponse, error)
	LogoutFunc    func(ctx context.Context, refreshToken string, meta services.RequestMeta) error
	LogoutAllFunc func(ctx context.Context, userID string, meta services.RequestMeta) error
	MeFunc        func(ctx context.Context, userID string) (*models.UserResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, meta services.RequestMeta) (*services.LoginResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, meta)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string, meta services.RequestMeta) (*services.RefreshResponse, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrInvalidToken
	}
	return m.RefreshFunc(ctx, refreshToken, meta)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string, meta services.RequestMeta) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, refreshToken, meta)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string, meta services.RequestMeta) error {
	if m.LogoutAllFunc == nil {
		return nil
	}
	return m.LogoutAllFunc(ctx, userID, meta)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	if m.MeFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.MeFunc(ctx, userID)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListUsersFunc     func(ctx context.Context) ([]*models.User, error)
	CreateUserFunc    func(ctx context.Context, actorID string, in services.CreateUserInput, meta services.RequestMeta) (*models.User, error)
	UpdateStatusFunc  func(ctx context.Context, actorID, id string, status models.AccountStatus, meta services.RequestMeta) (*models.User, error)
	ResetPasswordFunc func(ctx context.Context, actorID, id, password string, meta services.RequestMeta) error
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx)
}

func (m *MockUserService) CreateUser(ctx context.Context, actorID string, in services.CreateUserInput, meta services.RequestMeta) (*models.User, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateUserFunc(ctx, actorID, in, meta)
}

func (m *MockUserService) UpdateStatus(ctx context.Context, actorID, id string, status models.AccountStatus, meta services.RequestMeta) (*models.User, error) {
	if m.UpdateStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateStatusFunc(ctx, actorID, id, status, meta)
}

func (m *MockUserService) ResetPassword(ctx context.Context, actorID, id, password string, meta services.RequestMeta) error {
	if m.ResetPasswordFunc == nil {
		return nil
	}
	return m.ResetPasswordFunc(ctx, actorID, id, password, meta)
}

// MockClientService implements ClientService for testing
type MockClientService struct {
	ListFunc   func(ctx context.Context, scope models.TenantScope) ([]*models.Client, error)
	GetFunc    func(ctx context.Context, scope models.TenantScope, id string) (*models.Client, error)
	CreateFunc func(ctx context.Context, actorID string, c *models.Client, meta services.RequestMeta) (*models.Client, error)
}

func (m *MockClientService) List(ctx context.Context, scope models.TenantScope) ([]*models.Client, error) {
	if m.ListFunc == nil {
		return []*models.Client{}, nil
	}
	return m.ListFunc(ctx, scope)
}

func (m *MockClientService) Get(ctx context.Context, scope models.TenantScope, id string) (*models.Client, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, scope, id)
}

func (m *MockClientService) Create(ctx context.Context, actorID string, c *models.Client, meta services.RequestMeta) (*models.Client, error) {
	if m.CreateFunc == nil {
		c.ID = "client-new"
		return c, nil
	}
	return m.CreateFunc(ctx, actorID, c, meta)
}

// MockEquipmentService implements EquipmentService for testing
type MockEquipmentService struct {
	ListFunc   func(ctx context.Context, scope models.TenantScope, q services.EquipmentQuery) (models.Page[*models.Equipment], error)
	GetFunc    func(ctx context.Context, scope models.TenantScope, id string) (*models.Equipment, error)
	CreateFunc func(ctx context.Context, actorID string, e *models.Equipment, meta services.RequestMeta) (*models.Equipment, error)
}

func (m *MockEquipmentService) List(ctx context.Context, scope models.TenantScope, q services.EquipmentQuery) (models.Page[*models.Equipment], error) {
	if m.ListFunc == nil {
		return models.NewPage[*models.Equipment](q.Page, q.PageSize, 0, nil), nil
	}
	return m.ListFunc(ctx, scope, q)
}

func (m *MockEquipmentService) Get(ctx context.Context, scope models.TenantScope, id string) (*models.Equipment, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, scope, id)
}

func (m *MockEquipmentService) Create(ctx context.Context, actorID string, e *models.Equipment, meta services.RequestMeta) (*models.Equipment, error) {
	if m.CreateFunc == nil {
		e.ID = "eq-new"
		return e, nil
	}
	return m.CreateFunc(ctx, actorID, e, meta)
}

// MockInspectionService implements InspectionService for testing
type MockInspectionService struct {
	ListFunc      func(ctx context.Context, scope models.TenantScope) ([]*models.Inspection, error)
	CreateFunc    func(ctx context.Context, inspectorID string, in services.CreateInspectionInput, meta services.RequestMeta) (*models.Inspection, error)
	ListPFMEAFunc func(ctx context.Context, scope models.TenantScope, inspectionID string) ([]*models.PFMEAItem, error)
	AddPFMEAFunc  func(ctx context.Context, actorID string, scope models.TenantScope, inspectionID string, in services.CreatePFMEAInput, meta services.RequestMeta) (*models.PFMEAItem, error)
}

func (m *MockInspectionService) List(ctx context.Context, scope models.TenantScope) ([]*models.Inspection, error) {
	if m.ListFunc == nil {
		return []*models.Inspection{}, nil
	}
	return m.ListFunc(ctx, scope)
}

func (m *MockInspectionService) Create(ctx context.Context, inspectorID string, in services.CreateInspectionInput, meta services.RequestMeta) (*models.Inspection, error) {
	if m.CreateFunc == nil {
		return &models.Inspection{ID: "insp-new", EquipmentID: in.EquipmentID, InspectorID: inspectorID}, nil
	}
	return m.CreateFunc(ctx, inspectorID, in, meta)
}

func (m *MockInspectionService) ListPFMEA(ctx context.Context, scope models.TenantScope, inspectionID string) ([]*models.PFMEAItem, error) {
	if m.ListPFMEAFunc == nil {
		return []*models.PFMEAItem{}, nil
	}
	return m.ListPFMEAFunc(ctx, scope, inspectionID)
}

func (m *MockInspectionService) AddPFMEA(ctx context.Context, actorID string, scope models.TenantScope, inspectionID string, in services.CreatePFMEAInput, meta services.RequestMeta) (*models.PFMEAItem, error) {
	if m.AddPFMEAFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.AddPFMEAFunc(ctx, actorID, scope, inspectionID, in, meta)
}

// MockNCRService implements NCRService for testing
type MockNCRService struct {
	ListFunc         func(ctx context.Context, scope models.TenantScope) ([]*models.NCR, error)
	CreateFunc       func(ctx context.Context, actorID string, in services.CreateNCRInput, meta services.RequestMeta) (*models.NCR, error)
	UpdateStatusFunc func(ctx context.Context, actorID, id, status string, meta services.RequestMeta) (*models.NCR, error)
}

func (m *MockNCRService) List(ctx context.Context, scope models.TenantScope) ([]*models.NCR, error) {
	if m.ListFunc == nil {
		return []*models.NCR{}, nil
	}
	return m.ListFunc(ctx, scope)
}

func (m *MockNCRService) Create(ctx context.Context, actorID string, in services.CreateNCRInput, meta services.RequestMeta) (*models.NCR, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.CreateFunc(ctx, actorID, in, meta)
}

func (m *MockNCRService) UpdateStatus(ctx context.Context, actorID, id, status string, meta services.RequestMeta) (*models.NCR, error) {
	if m.UpdateStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateStatusFunc(ctx, actorID, id, status, meta)
}

// MockAuditLogService implements AuditLogService for testing
type MockAuditLogService struct {
	ListFunc func(ctx context.Context, page, pageSize int) (models.Page[*models.AuditLog], error)
}

func (m *MockAuditLogService) List(ctx context.Context, page, pageSize int) (models.Page[*models.AuditLog], error) {
	if m.ListFunc == nil {
		return models.NewPage[*models.AuditLog](page, pageSize, 0, nil), nil
	}
	return m.ListFunc(ctx, page, pageSize)
}

// MockDashboardService implements DashboardService for testing
type MockDashboardService struct {
	KPIsFunc               func(ctx context.Context, scope models.TenantScope) (*models.DashboardKPIs, error)
	InspectionsByMonthFunc func(ctx context.Context, scope models.TenantScope, months int) ([]models.MonthlyCount, error)
}

func (m *MockDashboardService) KPIs(ctx context.Context, scope models.TenantScope) (*models.DashboardKPIs, error) {
	if m.KPIsFunc == nil {
		return &models.DashboardKPIs{CompliancePct: 100}, nil
	}
	return m.KPIsFunc(ctx, scope)
}

func (m *MockDashboardService) InspectionsByMonth(ctx context.Context, scope models.TenantScope, months int) ([]models.MonthlyCount, error) {
	if m.InspectionsByMonthFunc == nil {
		return []models.MonthlyCount{}, nil
	}
	return m.InspectionsByMonthFunc(ctx, scope, months)
}

// MockVerifyService implements VerifyService for testing
type MockVerifyService struct {
	VerifyFunc func(ctx context.Context, code string) (*services.VerifyResult, error)
}

func (m *MockVerifyService) Verify(ctx context.Context, code string) (*services.VerifyResult, error) {
	if m.VerifyFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.VerifyFunc(ctx, code)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
