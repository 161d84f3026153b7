package auth

import (
	"testing"

	"github.com/monroy-qms/api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestScopeFromClaims(t *testing.T) {
	for _, role := range models.StaffRoles {
		scope, err := ScopeFromClaims(&models.AccessClaims{Role: role})
		require.NoError(t, err, role)
		assert.False(t, scope.Restricted(), role)
	}

	scope, err := ScopeFromClaims(&models.AccessClaims{Role: models.RoleClient, TenantID: strPtr("client-a")})
	require.NoError(t, err)
	assert.True(t, scope.Restricted())
	assert.Equal(t, "client-a", scope.ClientID())

	// Client A may never read client B's data.
	assert.ErrorIs(t, scope.Authorize("client-b"), models.ErrForbidden)
	assert.NoError(t, scope.Authorize("client-a"))
}

func TestScopeFromClaims_FailsClosed(t *testing.T) {
	_, err := ScopeFromClaims(&models.AccessClaims{Role: models.RoleClient})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = ScopeFromClaims(&models.AccessClaims{Role: models.RoleClient, TenantID: strPtr("")})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = ScopeFromClaims(&models.AccessClaims{Role: models.Role("AUDITOR")})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = ScopeFromClaims(nil)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
