package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/monroy-qms/api/internal/auth"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes a 400 and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "bad_request", "Invalid request body", err.Error())
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// writeServiceError maps a service error onto the HTTP error taxonomy.
// Unknown errors become a 500 without detail.
func writeServiceError(w http.ResponseWriter, err error) {
	var locked *models.AccountLockedError
	var invalid *models.ValidationError

	switch {
	case errors.As(err, &locked):
		pkghttp.WriteLocked(w, "Account is temporarily locked", locked.Until)
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteForbidden(w, "Account is disabled")
	case errors.Is(err, models.ErrInvalidToken):
		pkghttp.WriteUnauthorized(w, "Invalid token")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Unauthorized")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Forbidden")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.As(err, &invalid):
		pkghttp.WriteBadRequest(w, invalid.Message)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid input")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func requestMeta(r *http.Request, ipConfig *pkghttp.IPConfig) services.RequestMeta {
	return services.RequestMeta{
		IP:        pkghttp.ExtractClientIP(r, ipConfig),
		UserAgent: pkghttp.ExtractUserAgent(r),
	}
}

// callerScope returns the caller's claims and tenant scope, writing the
// error response and returning false when there are none.
func callerScope(w http.ResponseWriter, r *http.Request) (*models.AccessClaims, models.TenantScope, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	scope, err := auth.ScopeFromClaims(claims)
	if err != nil {
		writeServiceError(w, err)
		return nil, models.TenantScope{}, false
	}
	return claims, scope, true
}
