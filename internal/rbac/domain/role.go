// Package domain defines the role-based access control domain models.
//
// Roles form a closed, ordered set with fixed hierarchy levels and immutable default
// permission sets. Users carry a single role plus permission overrides that are granted
// in addition to the role defaults. Every role or permission mutation produces an
// AuditLogEntry.
package domain

import (
	"fmt"
	"strings"
)

// Role is an authority tier. The set of roles is closed and never changes at runtime.
type Role uint8

const (
	// RoleViewer is the lowest authority tier.
	RoleViewer Role = iota + 1

	// RoleAdmin manages content and the permission overrides of viewers.
	RoleAdmin

	// RoleSuperAdmin holds full authority, including promotion to privileged roles.
	RoleSuperAdmin
)

// roles lists every role in ascending level order.
var roles = []Role{RoleViewer, RoleAdmin, RoleSuperAdmin}

// Roles returns all roles ordered from the lowest to the highest level.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// LowestRole returns the role with the lowest level.
func LowestRole() Role {
	return RoleViewer
}

// ParseRole converts an external role name (e.g. "ADMIN") into a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
// Returns ErrInvalidRoleValue for unknown names.
func ParseRole(value string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "VIEWER":
		return RoleViewer, nil
	case "ADMIN":
		return RoleAdmin, nil
	case "SUPER_ADMIN":
		return RoleSuperAdmin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoleValue, value)
	}
}

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleViewer, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// String returns the persisted name of the role.
func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "VIEWER"
	case RoleAdmin:
		return "ADMIN"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Level returns the hierarchy level of the role. Higher means more authority.
// Panics on a value outside the closed role set.
func (r Role) Level() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		panic(fmt.Sprintf("rbac: unknown role %d", uint8(r)))
	}
}

// IsPrivileged reports whether assigning the role requires super-admin authority.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// DefaultPermissions returns a copy of the permissions granted by the role.
// Panics on a value outside the closed role set.
func (r Role) DefaultPermissions() []Permission {
	defaults := r.defaults()
	out := make([]Permission, len(defaults))
	copy(out, defaults)
	return out
}

// defaults returns the shared default slice without copying. Callers must not modify it.
func (r Role) defaults() []Permission {
	switch r {
	case RoleViewer:
		return viewerPermissions
	case RoleAdmin:
		return adminPermissions
	case RoleSuperAdmin:
		return superAdminPermissions
	default:
		panic(fmt.Sprintf("rbac: unknown role %d", uint8(r)))
	}
}

// MarshalText encodes the role as its persisted name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoleValue, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role from its persisted name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

var (
	viewerPermissions = []Permission{
		"products.view",
		"categories.view",
		"pages.view",
		"messages.view",
		"media.view",
		"analytics.view",
	}

	adminPermissions = []Permission{
		"products.*",
		"categories.*",
		"pages.*",
		"messages.*",
		"media.*",
		"analytics.*",
		PermissionUsersView,
		PermissionUsersEdit,
		PermissionUsersEditPermissions,
		PermissionAuditLogsView,
	}

	superAdminPermissions = []Permission{
		"products.*",
		"categories.*",
		"pages.*",
		"messages.*",
		"media.*",
		"analytics.*",
		"settings.*",
		"users.*",
		"audit_logs.*",
	}
)
