package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminators carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessClaims identify the caller of a single request. They are rebuilt from
// the bearer token on every request and never persisted.
type AccessClaims struct {
	Type     string  `json:"typ"`
	Role     Role    `json:"role"`
	TenantID *string `json:"tenantId,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *AccessClaims) UserID() string {
	return c.Subject
}

// RefreshClaims are embedded in refresh tokens.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshToken is a registry row. TokenHash is a salted one-way hash of the
// raw token; the raw token is never stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Live reports whether the record is neither revoked nor expired at now.
func (t *RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
