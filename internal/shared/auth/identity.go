package auth

import "strings"

// Role tags a user record instead of specializing user subtypes. Capability
// checks go through predicates on Identity.
type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
	RoleSystem Role = "SYSTEM"
)

var allowedRoles = map[string]Role{
	string(RoleGuest):  RoleGuest,
	string(RoleStaff):  RoleStaff,
	string(RoleAdmin):  RoleAdmin,
	string(RoleSystem): RoleSystem,
}

// NormalizeRole returns the canonical Role for raw input, defaulting to guest.
func NormalizeRole(value string) Role {
	key := strings.ToUpper(strings.TrimSpace(value))
	if role, ok := allowedRoles[key]; ok {
		return role
	}
	return RoleGuest
}

// Identity is the resolved yes/no outcome of authentication: who is calling
// and with which role. Credential verification happens upstream.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// IsStaff reports whether the identity may act on entries it did not create.
func (i Identity) IsStaff() bool {
	return i.Role == RoleStaff || i.Role == RoleAdmin || i.Role == RoleSystem
}

// CanManageTables reports whether the identity may edit the table registry and
// opening hours.
func (i Identity) CanManageTables() bool {
	return i.IsStaff()
}

// SystemIdentity is the actor used by scheduler-initiated transitions.
func SystemIdentity() Identity {
	return Identity{UserID: "system", Role: RoleSystem}
}
