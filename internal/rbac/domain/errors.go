package domain

import (
	"github.com/allisson/roleguard/internal/errors"
)

// Role-change validation errors. Each one is deterministic and must never be retried.
var (
	// ErrTargetNotFound indicates the user being modified does not exist.
	ErrTargetNotFound = errors.Wrap(errors.ErrNotFound, "target not found")

	// ErrSelfDemotionDenied indicates an actor tried to lower their own role.
	ErrSelfDemotionDenied = errors.Wrap(errors.ErrForbidden, "self demotion denied")

	// ErrInsufficientAuthorityToPromote indicates a non super-admin tried to assign a privileged role.
	ErrInsufficientAuthorityToPromote = errors.Wrap(errors.ErrForbidden, "insufficient authority to promote")

	// ErrCannotModifySuperior indicates a non super-admin tried to modify a super-admin.
	ErrCannotModifySuperior = errors.Wrap(errors.ErrForbidden, "cannot modify superior")

	// ErrOutOfScope indicates an admin tried to modify a user outside the lowest role, or themselves.
	ErrOutOfScope = errors.Wrap(errors.ErrForbidden, "target out of scope")

	// ErrLastAdminProtected indicates the change would remove the last holder of a privileged role.
	ErrLastAdminProtected = errors.Wrap(errors.ErrConflict, "last admin protected")
)

// Input and authorization errors.
var (
	// ErrUserNotFound indicates the acting or requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrInvalidPermissionFormat indicates a permission is empty or not of the form "resource.action".
	ErrInvalidPermissionFormat = errors.Wrap(errors.ErrInvalidInput, "invalid permission format")

	// ErrUnknownPermission indicates a well-formed permission outside the known vocabulary.
	ErrUnknownPermission = errors.Wrap(errors.ErrInvalidInput, "unknown permission")

	// ErrInvalidRoleValue indicates a role name outside the role registry.
	ErrInvalidRoleValue = errors.Wrap(errors.ErrInvalidInput, "invalid role value")

	// ErrPermissionDenied indicates the actor lacks the permission required by the operation.
	ErrPermissionDenied = errors.Wrap(errors.ErrForbidden, "permission denied")

	// ErrCannotManageTarget indicates the actor's level does not exceed the target's level.
	ErrCannotManageTarget = errors.Wrap(errors.ErrForbidden, "cannot manage target")
)

// Collaborator errors.
var (
	// ErrPersistenceFailure indicates the user store failed. It is the only retryable kind.
	ErrPersistenceFailure = errors.Wrap(errors.ErrUnavailable, "persistence failure")

	// ErrAuditWriteFailure indicates the audit store failed. It is logged, never propagated
	// as the failure of the mutation it describes.
	ErrAuditWriteFailure = errors.Wrap(errors.ErrUnavailable, "audit write failure")

	// ErrAuditLogNotFound indicates the requested audit log entry does not exist.
	ErrAuditLogNotFound = errors.Wrap(errors.ErrNotFound, "audit log not found")

	// ErrSignatureInvalid indicates an audit log signature does not match its content.
	ErrSignatureInvalid = errors.Wrap(errors.ErrConflict, "audit log signature invalid")

	// ErrSigningKeyMissing indicates audit signing is enabled without a key.
	ErrSigningKeyMissing = errors.Wrap(errors.ErrInvalidInput, "audit signing key missing")
)

// reasonCodes maps errors to stable machine-readable codes, most specific first.
var reasonCodes = []struct {
	err  error
	code string
}{
	{ErrTargetNotFound, "target_not_found"},
	{ErrSelfDemotionDenied, "self_demotion_denied"},
	{ErrInsufficientAuthorityToPromote, "insufficient_authority_to_promote"},
	{ErrCannotModifySuperior, "cannot_modify_superior"},
	{ErrOutOfScope, "out_of_scope"},
	{ErrLastAdminProtected, "last_admin_protected"},
	{ErrInvalidPermissionFormat, "invalid_permission_format"},
	{ErrUnknownPermission, "unknown_permission"},
	{ErrInvalidRoleValue, "invalid_role_value"},
	{ErrPermissionDenied, "permission_denied"},
	{ErrCannotManageTarget, "cannot_manage_target"},
	{ErrPersistenceFailure, "persistence_failure"},
	{ErrAuditWriteFailure, "audit_write_failure"},
	{ErrUserNotFound, "user_not_found"},
	{ErrAuditLogNotFound, "audit_log_not_found"},
	{ErrSignatureInvalid, "signature_invalid"},
	{ErrSigningKeyMissing, "signing_key_missing"},
}

// ReasonCode returns the stable code of a domain error, "internal_error" for anything
// else and "" for nil.
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "internal_error"
}

// IsRetryable reports whether the caller may retry the operation that produced err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}
