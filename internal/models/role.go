package models

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleManager   Role = "MANAGER"
	RoleInspector Role = "INSPECTOR"
	RoleClient    Role = "CLIENT"
)

var (
	// StaffRoles may create equipment, inspections, PFMEA items and NCRs.
	StaffRoles = []Role{RoleAdmin, RoleManager, RoleInspector}
	// ManagementRoles may manage clients and close NCRs.
	ManagementRoles = []Role{RoleAdmin, RoleManager}
)

// ParseRole returns the role named by s or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleInspector, RoleClient:
		return true
	}
	return false
}

// RequiresTenant reports whether accounts with this role must carry a tenant id.
func (r Role) RequiresTenant() bool {
	return r == RoleClient
}

// In reports whether r is a member of roles.
func (r Role) In(roles []Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}
