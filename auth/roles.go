package auth

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Role is the backend's numeric role id.
type Role int

const (
	RoleNone Role = iota
	RoleSuperAdmin
	RoleAdmin
	RoleManager
	RoleTravelManager
	RoleOperator
	RoleEndUser
)

// EntityRoles may open the entity administration views.
var EntityRoles = []Role{RoleSuperAdmin, RoleAdmin}

func (r Role) String() string {
	switch r {
	case RoleSuperAdmin:
		return "super_admin"
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleTravelManager:
		return "travel_manager"
	case RoleOperator:
		return "operator"
	case RoleEndUser:
		return "end_user"
	default:
		return "none"
	}
}

// In reports whether r is one of roles.
func (r Role) In(roles []Role) bool {
	return slices.Contains(roles, r)
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (r *Role) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = RoleNone
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := parseRoleText(s)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = Role(n)
	return nil
}
