package auth

import "github.com/monroy-qms/api/internal/models"

// ScopeFromClaims derives the tenant scope of a caller. Staff roles see every
// tenant; CLIENT accounts see only their own. A CLIENT token without a tenant
// id, or an unknown role, fails closed with ErrForbidden.
func ScopeFromClaims(claims *models.AccessClaims) (models.TenantScope, error) {
	if claims == nil {
		return models.TenantScope{}, models.ErrUnauthorized
	}

	switch claims.Role {
	case models.RoleAdmin, models.RoleManager, models.RoleInspector:
		return models.Unrestricted(), nil
	case models.RoleClient:
		if claims.TenantID == nil || *claims.TenantID == "" {
			return models.TenantScope{}, models.ErrForbidden
		}
		return models.RestrictedTo(*claims.TenantID), nil
	default:
		return models.TenantScope{}, models.ErrForbidden
	}
}
