// Package rbac holds the role model: the closed set of roles, the static
// role -> capability table and the route access rules enforced by the gate.
package rbac

import "strings"

// Role is one of the closed set of account roles. The string value is what
// gets stored in the accounts table and returned to clients.
type Role string

const (
	Admin      Role = "ADMIN"
	Owner      Role = "OWNER"
	Accountant Role = "ACCOUNTANT"
	User       Role = "USER"
	Viewer     Role = "VIEWER"
)

type roleInfo struct {
	label       string
	description string
}

var roleInfos = map[Role]roleInfo{
	Admin:      {label: "Administrator", description: "System administrator with every permission"},
	Owner:      {label: "Company Owner", description: "Manages the company and may perform every operation"},
	Accountant: {label: "Accountant", description: "Performs accounting operations"},
	User:       {label: "User", description: "Performs basic operations"},
	Viewer:     {label: "Viewer", description: "May only view reports"},
}

// Roles returns every defined role, most privileged first.
func Roles() []Role {
	return []Role{Admin, Owner, Accountant, User, Viewer}
}

// ParseRole maps s to a Role case-insensitively. Empty or unknown input
// yields User.
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r.Valid() {
		return r
	}
	return User
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleInfos[r]
	return ok
}

// Label is the human readable role name.
func (r Role) Label() string {
	return roleInfos[r].label
}

func (r Role) Description() string {
	return roleInfos[r].description
}

// IsAdministrative is true for ADMIN and OWNER.
func (r Role) IsAdministrative() bool {
	return r == Admin || r == Owner
}

// IsAccountingCapable is true for ADMIN, OWNER and ACCOUNTANT.
func (r Role) IsAccountingCapable() bool {
	return r == Admin || r == Owner || r == Accountant
}

func (r Role) IsViewOnly() bool {
	return r == Viewer
}
