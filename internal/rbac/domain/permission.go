package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Permission is a capability token of the form "resource.action", or the resource
// wildcard "resource.*" granting every action on the resource.
type Permission string

// wildcardAction is the action segment that grants all actions on a resource.
const wildcardAction = "*"

// Permissions referenced by the engine itself.
const (
	// PermissionUsersView allows listing and reading users.
	PermissionUsersView Permission = "users.view"

	// PermissionUsersEdit allows editing user profile data.
	PermissionUsersEdit Permission = "users.edit"

	// PermissionUsersEditPermissions allows replacing a user's permission overrides.
	PermissionUsersEditPermissions Permission = "users.edit_permissions"

	// PermissionAuditLogsView allows reading the audit trail.
	PermissionAuditLogsView Permission = "audit_logs.view"

	// PermissionAuditLogsVerify allows running audit integrity verification.
	PermissionAuditLogsVerify Permission = "audit_logs.verify"
)

// vocabulary maps each known resource to its known actions.
var vocabulary = map[string][]string{
	"products":   {"view", "create", "edit", "delete", "export", "import"},
	"categories": {"view", "create", "edit", "delete"},
	"pages":      {"view", "create", "edit", "delete"},
	"messages":   {"view", "reply", "delete"},
	"media":      {"view", "upload", "delete"},
	"analytics":  {"view", "export"},
	"settings":   {"view", "edit"},
	"users":      {"view", "edit", "edit_permissions"},
	"audit_logs": {"view", "verify"},
}

// ParsePermission validates the "resource.action" shape of value.
// Returns ErrInvalidPermissionFormat if value is empty, has no "." separator,
// or has an empty resource or action segment.
func ParsePermission(value string) (Permission, error) {
	resource, action, ok := strings.Cut(value, ".")
	if !ok || resource == "" || action == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPermissionFormat, value)
	}
	return Permission(value), nil
}

// WildcardFor returns the "resource.*" permission for a resource.
func WildcardFor(resource string) Permission {
	return Permission(resource + "." + wildcardAction)
}

// Resource returns the segment before the first ".".
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ".")
	return resource
}

// Action returns everything after the first ".".
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ".")
	return action
}

// IsWildcard reports whether p is a "resource.*" grant.
func (p Permission) IsWildcard() bool {
	return p.Action() == wildcardAction
}

// IsKnown reports whether p belongs to the permission vocabulary. Resource wildcards
// are known when their resource is known.
func (p Permission) IsKnown() bool {
	actions, ok := vocabulary[p.Resource()]
	if !ok {
		return false
	}
	if p.IsWildcard() {
		return true
	}
	return slices.Contains(actions, p.Action())
}

// String returns the permission token.
func (p Permission) String() string {
	return string(p)
}

// KnownPermissions returns every concrete permission of the vocabulary, sorted.
func KnownPermissions() []Permission {
	out := make([]Permission, 0, 32)
	for resource, actions := range vocabulary {
		for _, action := range actions {
			out = append(out, Permission(resource+"."+action))
		}
	}
	slices.Sort(out)
	return out
}

// NormalizeOverrides validates permission overrides against the vocabulary and returns
// them sorted and de-duplicated. Returns ErrInvalidPermissionFormat for malformed tokens
// and ErrUnknownPermission for well-formed tokens outside the vocabulary.
func NormalizeOverrides(values []string) ([]Permission, error) {
	out := make([]Permission, 0, len(values))
	for _, value := range values {
		permission, err := ParsePermission(value)
		if err != nil {
			return nil, err
		}
		if !permission.IsKnown() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPermission, value)
		}
		out = append(out, permission)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
