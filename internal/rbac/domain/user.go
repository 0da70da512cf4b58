package domain

import (
	"slices"
	"time"
)

// User is the authorization view of an account. Identity is owned by the external
// identity provider; this engine only reads and mutates Role and Permissions.
type User struct {
	ID    string
	Email string
	Name  string
	Role  Role

	// RoleLevel is a denormalized copy of Role.Level() maintained by the user store.
	// Authorization decisions always recompute the level from Role.
	RoleLevel int

	// Permissions are overrides granted in addition to the role defaults.
	Permissions []Permission

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePermissions returns the union of the role defaults and the user's overrides,
// sorted and de-duplicated.
func (u *User) EffectivePermissions() []Permission {
	defaults := u.Role.defaults()
	out := make([]Permission, 0, len(defaults)+len(u.Permissions))
	out = append(out, defaults...)
	out = append(out, u.Permissions...)
	slices.Sort(out)
	return slices.Compact(out)
}

// HasPermission reports whether the user's effective permissions grant permission.
//
// A permission is granted by an exact match or by the "resource.*" wildcard of its
// resource, where resource is the segment before the first ".". Wildcards are one level
// deep: "a.b.*" never grants "a.b.c". The check performs no I/O.
//
// Returns ErrInvalidPermissionFormat when permission is empty or has no "." separator,
// so callers can tell a malformed request apart from a denial. A nil user returns
// ErrUserNotFound, never a plain denial.
func (u *User) HasPermission(permission string) (bool, error) {
	requested, err := ParsePermission(permission)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, ErrUserNotFound
	}

	wildcard := WildcardFor(requested.Resource())
	grants := func(set []Permission) bool {
		for _, p := range set {
			if p == requested || p == wildcard {
				return true
			}
		}
		return false
	}

	return grants(u.Role.defaults()) || grants(u.Permissions), nil
}

// CanManage reports whether actor may administratively act on target. The actor's level
// must be strictly greater than the target's; equal levels, including self, never qualify.
func CanManage(actor, target *User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.Role.Level() > target.Role.Level()
}

// RoleSnapshot returns the role fields recorded as audit old/new values.
func (u *User) RoleSnapshot() map[string]any {
	return map[string]any{
		"role":       u.Role.String(),
		"role_level": u.Role.Level(),
	}
}

// PermissionSnapshot returns the permission overrides recorded as audit old/new values.
func (u *User) PermissionSnapshot() map[string]any {
	permissions := make([]string, len(u.Permissions))
	for i, p := range u.Permissions {
		permissions[i] = string(p)
	}
	return map[string]any{"permissions": permissions}
}
