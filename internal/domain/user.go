package domain

import "strings"

// Account roles.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

var roleAliases = map[string]string{
	"customer":      RoleCustomer,
	"cliente":       RoleCustomer,
	"seller":        RoleSeller,
	"vendedor":      RoleSeller,
	"admin":         RoleAdmin,
	"administrador": RoleAdmin,
}

// ParseRole normalizes a role name, accepting the Spanish aliases issued by
// the identity system.
func ParseRole(s string) (string, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return role, ok
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// UserRef is a read-side reference to an account, resolved by join.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}
