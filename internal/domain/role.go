package domain

import "fmt"

// Role determines which dashboard a user is routed to.
type Role string

const (
	RoleTenant          Role = "tenant"
	RolePropertyManager Role = "property_manager"
	RoleVendor          Role = "vendor"
)

// Roles lists every valid role.
var Roles = []Role{RoleTenant, RolePropertyManager, RoleVendor}

// ParseRole converts s into a Role, rejecting values outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RolePropertyManager, RoleVendor:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// DashboardPath returns /<role>/dashboard.
func (r Role) DashboardPath() string {
	return "/" + string(r) + "/dashboard"
}
