package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/monroy-qms/api/internal/handlers"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	return handlers.WithClaimsContext(handlers.NewTestRequest(t, method, url, body), "admin-1", models.RoleAdmin, nil)
}

func TestListUsers_HidesPasswordHash(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		ListUsersFunc: func(ctx context.Context) ([]*models.User, error) {
			return []*models.User{{ID: "u1", Email: "a@monroy.test", PasswordHash: "$2a$secret", Role: models.RoleInspector}}, nil
		},
	}
	handler := handlers.NewUserHandler(mockUsers, nil)

	w := httptest.NewRecorder()
	handler.ListUsers(w, adminRequest(t, "GET", "/api/users", nil))

	var resp []map[string]interface{}
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "u1", resp[0]["id"])
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestCreateUser(t *testing.T) {
	var got services.CreateUserInput
	mockUsers := &handlers.MockUserService{
		CreateUserFunc: func(ctx context.Context, actorID string, in services.CreateUserInput, meta services.RequestMeta) (*models.User, error) {
			got = in
			assert.Equal(t, "admin-1", actorID)
			return &models.User{ID: "u-new", Email: in.Email, Name: in.Name, Role: in.Role, TenantID: in.TenantID, Status: models.StatusActive}, nil
		},
	}
	handler := handlers.NewUserHandler(mockUsers, nil)

	tenant := "client-a"
	w := httptest.NewRecorder()
	handler.CreateUser(w, adminRequest(t, "POST", "/api/users", handlers.CreateUserRequest{
		Name: "Cara Client", Email: "cara@client.test", Password: "Secure123pass", Role: "CLIENT", TenantID: &tenant,
	}))

	var resp models.UserResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "u-new", resp.ID)
	assert.Equal(t, models.RoleClient, got.Role)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, "client-a", *got.TenantID)
}

func TestCreateUser_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       handlers.CreateUserRequest
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "short name",
			body:       handlers.CreateUserRequest{Name: "A", Email: "a@monroy.test", Password: "Secure123pass", Role: "INSPECTOR"},
			wantStatus: http.StatusBadRequest, wantCode: "bad_request",
		},
		{
			name:       "unknown role",
			body:       handlers.CreateUserRequest{Name: "Al", Email: "a@monroy.test", Password: "Secure123pass", Role: "ROOT"},
			wantStatus: http.StatusBadRequest, wantCode: "bad_request",
		},
		{
			name:       "short password",
			body:       handlers.CreateUserRequest{Name: "Al", Email: "a@monroy.test", Password: "short", Role: "INSPECTOR"},
			wantStatus: http.StatusBadRequest, wantCode: "bad_request",
		},
		{
			name:       "duplicate email",
			body:       handlers.CreateUserRequest{Name: "Al", Email: "a@monroy.test", Password: "Secure123pass", Role: "INSPECTOR"},
			serviceErr: models.ErrConflict,
			wantStatus: http.StatusConflict, wantCode: "conflict",
		},
		{
			name:       "client without tenant",
			body:       handlers.CreateUserRequest{Name: "Al", Email: "a@monroy.test", Password: "Secure123pass", Role: "CLIENT"},
			serviceErr: models.NewValidationError("tenantId is required for CLIENT accounts"),
			wantStatus: http.StatusBadRequest, wantCode: "bad_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := &handlers.MockUserService{
				CreateUserFunc: func(ctx context.Context, actorID string, in services.CreateUserInput, meta services.RequestMeta) (*models.User, error) {
					return nil, tt.serviceErr
				},
			}
			handler := handlers.NewUserHandler(mockUsers, nil)

			w := httptest.NewRecorder()
			handler.CreateUser(w, adminRequest(t, "POST", "/api/users", tt.body))

			resp := handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
			if tt.name == "client without tenant" {
				assert.Equal(t, "tenantId is required for CLIENT accounts", resp.Message)
			}
		})
	}
}

func TestUpdateUserStatus(t *testing.T) {
	var gotID string
	var gotStatus models.AccountStatus
	mockUsers := &handlers.MockUserService{
		UpdateStatusFunc: func(ctx context.Context, actorID, id string, status models.AccountStatus, meta services.RequestMeta) (*models.User, error) {
			gotID, gotStatus = id, status
			return &models.User{ID: id, Status: status}, nil
		},
	}
	handler := handlers.NewUserHandler(mockUsers, nil)

	req := handlers.WithURLParam(adminRequest(t, "PATCH", "/api/users/u1", handlers.UpdateStatusRequest{Status: "DISABLED"}), "id", "u1")
	w := httptest.NewRecorder()
	handler.UpdateStatus(w, req)

	var resp models.UserResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "u1", gotID)
	assert.Equal(t, models.StatusDisabled, gotStatus)
	assert.Equal(t, models.StatusDisabled, resp.Status)

	req = handlers.WithURLParam(adminRequest(t, "PATCH", "/api/users/u1", handlers.UpdateStatusRequest{Status: "DELETED"}), "id", "u1")
	w = httptest.NewRecorder()
	handler.UpdateStatus(w, req)
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestResetPassword_NotFound(t *testing.T) {
	mockUsers := &handlers.MockUserService{
		ResetPasswordFunc: func(ctx context.Context, actorID, id, password string, meta services.RequestMeta) error {
			return models.ErrNotFound
		},
	}
	handler := handlers.NewUserHandler(mockUsers, nil)

	req := handlers.WithURLParam(adminRequest(t, "POST", "/api/users/missing/password", handlers.ResetPasswordRequest{Password: "Brand9NewPass"}), "id", "missing")
	w := httptest.NewRecorder()
	handler.ResetPassword(w, req)
	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}
