package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/monroy-qms/api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		assert.NotNil(t, ClaimsFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tm := newTestTokenManager()
	token, err := tm.GenerateAccessToken(&models.User{ID: "u1", Role: models.RoleManager})
	require.NoError(t, err)

	called := false
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	Authenticate(tm)(okHandler(t, &called)).ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_Rejections(t *testing.T) {
	tm := newTestTokenManager()
	refresh, _, err := tm.GenerateRefreshToken(&models.User{ID: "u1", Role: models.RoleManager})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{name: "refresh token as access", header: "Bearer " + refresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Authenticate(tm)(okHandler(t, &called)).ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"unauthorized"`)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		claims     *models.AccessClaims
		roles      []models.Role
		wantStatus int
	}{
		{name: "no claims", claims: nil, roles: []models.Role{models.RoleAdmin}, wantStatus: http.StatusUnauthorized},
		{name: "wrong role", claims: &models.AccessClaims{Role: models.RoleInspector}, roles: []models.Role{models.RoleAdmin}, wantStatus: http.StatusForbidden},
		{name: "allowed role", claims: &models.AccessClaims{Role: models.RoleManager}, roles: models.ManagementRoles, wantStatus: http.StatusOK},
		{name: "client excluded from staff", claims: &models.AccessClaims{Role: models.RoleClient}, roles: models.StaffRoles, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			w := httptest.NewRecorder()

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			RequireRole(tt.roles...)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer abc.def.ghi")

	token, ok := BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestClaimsFromContext_Empty(t *testing.T) {
	assert.Nil(t, ClaimsFromContext(context.Background()))
}

func TestAuthenticate_RecordsUserID(t *testing.T) {
	tm := newTestTokenManager()
	token, err := tm.GenerateAccessToken(&models.User{ID: "u7", Role: models.RoleInspector})
	require.NoError(t, err)

	var userID string
	called := false
	req := httptest.NewRequest("GET", "/api/equipment", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(WithUserIDRecorder(req.Context(), &userID))

	Authenticate(tm)(okHandler(t, &called)).ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
	assert.Equal(t, "u7", userID)
}
