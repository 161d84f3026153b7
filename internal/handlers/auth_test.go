package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/monroy-qms/api/internal/handlers"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	var gotMeta services.RequestMeta
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.LoginResponse, error) {
			gotMeta = meta
			return &services.LoginResponse{
				AccessToken:  "access_token_123",
				RefreshToken: "refresh_token_123",
				User:         &services.SessionUser{ID: "user-1", Email: email, Role: models.RoleInspector},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
		Email:    "user@monroy.test",
		Password: "password123",
	})
	req.RemoteAddr = "203.0.113.9:51000"
	req.Header.Set("User-Agent", "test-agent")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.LoginResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "refresh_token_123", resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "203.0.113.9", gotMeta.IP)
	assert.Equal(t, "test-agent", gotMeta.UserAgent)
}

func TestLogin_ErrorMapping(t *testing.T) {
	until := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad credentials", models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"timed lock", &models.AccountLockedError{Until: &until}, http.StatusLocked, "account_locked"},
		{"admin lock", &models.AccountLockedError{}, http.StatusLocked, "account_locked"},
		{"disabled", models.ErrAccountDisabled, http.StatusForbidden, "forbidden"},
		{"store failure", models.ErrInternalServer, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.LoginResponse, error) {
					return nil, tt.err
				},
			}
			handler := handlers.NewAuthHandler(mockAuth, nil)
			req := handlers.NewTestRequest(t, "POST", "/api/auth/login", handlers.LoginRequest{
				Email: "user@monroy.test", Password: "password123",
			})

			w := httptest.NewRecorder()
			handler.Login(w, req)

			resp := handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
			if tt.name == "timed lock" {
				require.NotNil(t, resp.LockUntil)
				assert.True(t, until.Equal(*resp.LockUntil))
			}
			if tt.name == "admin lock" {
				assert.Nil(t, resp.LockUntil)
			}
		})
	}
}

func TestLogin_ValidationErrors(t *testing.T) {
	called := false
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.LoginResponse, error) {
			called = true
			return nil, nil
		},
	}
	handler := handlers.NewAuthHandler(mockAuth, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"missing password", `{"email":"user@monroy.test"}`},
		{"bad email", `{"email":"not-an-email","password":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Login(w, req)
			handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
		})
	}
	assert.False(t, called)
}

func TestRefresh(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string, meta services.RequestMeta) (*services.RefreshResponse, error) {
			if refreshToken != "good" {
				return nil, models.ErrInvalidToken
			}
			return &services.RefreshResponse{AccessToken: "new-access"}, nil
		},
	}
	handler := handlers.NewAuthHandler(mockAuth, nil)

	w := httptest.NewRecorder()
	handler.Refresh(w, handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshTokenRequest{RefreshToken: "good"}))

	var resp map[string]interface{}
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "new-access", resp["accessToken"])
	_, hasRefresh := resp["refreshToken"]
	assert.False(t, hasRefresh)

	w = httptest.NewRecorder()
	handler.Refresh(w, handlers.NewTestRequest(t, "POST", "/api/auth/refresh", handlers.RefreshTokenRequest{RefreshToken: "revoked"}))
	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")

	w = httptest.NewRecorder()
	handler.Refresh(w, handlers.NewTestRequest(t, "POST", "/api/auth/refresh", map[string]string{}))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestLogout(t *testing.T) {
	var got []string
	mockAuth := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, refreshToken string, meta services.RequestMeta) error {
			got = append(got, refreshToken)
			return nil
		},
	}
	handler := handlers.NewAuthHandler(mockAuth, nil)

	w := httptest.NewRecorder()
	handler.Logout(w, handlers.NewTestRequest(t, "POST", "/api/auth/logout", handlers.LogoutRequest{RefreshToken: "tok"}))
	var resp handlers.OKResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.OK)

	w = httptest.NewRecorder()
	handler.Logout(w, httptest.NewRequest("POST", "/api/auth/logout", http.NoBody))
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)

	assert.Equal(t, []string{"tok", ""}, got)
}

func TestLogoutAll_RequiresClaims(t *testing.T) {
	var gotUser string
	mockAuth := &handlers.MockAuthService{
		LogoutAllFunc: func(ctx context.Context, userID string, meta services.RequestMeta) error {
			gotUser = userID
			return nil
		},
	}
	handler := handlers.NewAuthHandler(mockAuth, nil)

	w := httptest.NewRecorder()
	handler.LogoutAll(w, httptest.NewRequest("POST", "/api/auth/logout-all", nil))
	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")

	req := handlers.WithClaimsContext(httptest.NewRequest("POST", "/api/auth/logout-all", nil), "user-1", models.RoleManager, nil)
	w = httptest.NewRecorder()
	handler.LogoutAll(w, req)
	handlers.AssertJSONResponse(t, w, http.StatusOK, nil)
	assert.Equal(t, "user-1", gotUser)
}

func TestMe(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		MeFunc: func(ctx context.Context, userID string) (*models.UserResponse, error) {
			return &models.UserResponse{ID: userID, Role: models.RoleClient}, nil
		},
	}
	handler := handlers.NewAuthHandler(mockAuth, nil)

	tenant := "client-a"
	req := handlers.WithClaimsContext(httptest.NewRequest("GET", "/api/auth/me", nil), "user-9", models.RoleClient, &tenant)
	w := httptest.NewRecorder()
	handler.Me(w, req)

	var resp models.UserResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "user-9", resp.ID)
}

func TestErrorBodyShape(t *testing.T) {
	w := httptest.NewRecorder()
	pkghttp.WriteNotFound(w, "Not found")
	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}
