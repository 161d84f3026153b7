package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/monroy-qms/api/internal/models"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// ClaimsContextKey is the key for storing access claims in context
	ClaimsContextKey contextKey = "claims"

	userIDRecorderKey contextKey = "user_id_recorder"
)

// AccessTokenValidator verifies bearer access tokens
type AccessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.AccessClaims, error)
}

// Authenticate rejects requests without a valid bearer access token and
// injects the verified claims into the request context. Missing headers,
// malformed headers and bad tokens all produce the same 401.
func Authenticate(tv AccessTokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			claims, err := tv.ValidateAccessToken(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			if dst, ok := r.Context().Value(userIDRecorderKey).(*string); ok {
				*dst = claims.UserID()
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows the request through only when the caller's role is one
// of roles. It must run after Authenticate.
func RequireRole(roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			if !claims.Role.In(roles) {
				pkghttp.WriteForbidden(w, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *models.AccessClaims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext extracts access claims from the context, or nil
func ClaimsFromContext(ctx context.Context) *models.AccessClaims {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithUserIDRecorder returns a copy of ctx in which Authenticate stores the
// authenticated user id into dst. Outer middleware uses it to see who made a
// request after the handler chain returns.
func WithUserIDRecorder(ctx context.Context, dst *string) context.Context {
	return context.WithValue(ctx, userIDRecorderKey, dst)
}
