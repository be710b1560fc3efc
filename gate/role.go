package gate

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleManager, RoleAdmin}

// ParseRole accepts a role name case-insensitively and rejects anything outside
// the enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleManager || r == RoleAdmin
}

// Capability is what a route requires from its caller.
type Capability int

const (
	Anonymous Capability = iota
	Authenticated
	Manager
	Admin
)

func (c Capability) String() string {
	switch c {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Manager:
		return "manager"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// Allows is the single capability check: admin covers manager routes, manager
// covers authenticated routes. An invalid role is only allowed anonymous access.
func Allows(r Role, c Capability) bool {
	switch c {
	case Anonymous:
		return true
	case Authenticated:
		return r.Valid()
	case Manager:
		return r == RoleManager || r == RoleAdmin
	case Admin:
		return r == RoleAdmin
	}
	return false
}

// Subject is the authenticated caller as seen by policies.
type Subject struct {
	ID   uint
	Role Role
}

// Can reports whether the subject holds capability c.
func (s Subject) Can(c Capability) bool { return Allows(s.Role, c) }
