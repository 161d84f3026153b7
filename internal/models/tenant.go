package models

// TenantScope restricts data access to one client. The zero value is
// unrestricted.
type TenantScope struct {
	clientID   string
	restricted bool
}

// Unrestricted returns a scope that sees every tenant.
func Unrestricted() TenantScope {
	return TenantScope{}
}

// RestrictedTo returns a scope limited to clientID.
func RestrictedTo(clientID string) TenantScope {
	return TenantScope{clientID: clientID, restricted: true}
}

// Restricted reports whether the scope limits access to a single tenant.
func (s TenantScope) Restricted() bool {
	return s.restricted
}

// ClientID returns the tenant the scope is limited to, if any.
func (s TenantScope) ClientID() string {
	return s.clientID
}

// Authorize returns ErrForbidden when resourceClientID lies outside the scope.
func (s TenantScope) Authorize(resourceClientID string) error {
	if s.restricted && resourceClientID != s.clientID {
		return ErrForbidden
	}
	return nil
}

// ClientFilter returns the client id list queries must filter on, or nil when
// the scope is unrestricted. requested is an optional caller-supplied filter
// that is ignored for restricted scopes.
func (s TenantScope) ClientFilter(requested string) *string {
	if s.restricted {
		id := s.clientID
		return &id
	}
	if requested != "" {
		return &requested
	}
	return nil
}
