// Package usecase orchestrates RBAC operations: permission checks, guarded role changes,
// bulk role changes, permission override edits, and the audit trail.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// UserRepository defines persistence operations for the authorization view of users.
// Implementations must participate in the transaction bound to ctx by database.TxManager.
type UserRepository interface {
	// Get returns the user with id, or ErrUserNotFound.
	Get(ctx context.Context, id string) (*rbacDomain.User, error)

	// UpdateRole sets the role of the user and recomputes its denormalized role level.
	UpdateRole(ctx context.Context, id string, role rbacDomain.Role) error

	// UpdatePermissions replaces the permission overrides of the user.
	UpdatePermissions(ctx context.Context, id string, permissions []rbacDomain.Permission) error

	// CountByRole returns the number of users currently holding role.
	CountByRole(ctx context.Context, role rbacDomain.Role) (int, error)
}

// AuditLogRepository defines persistence operations for the append-only audit trail.
type AuditLogRepository interface {
	// Append stores a new entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *rbacDomain.AuditLogEntry) error

	// Get returns the entry with id, or ErrAuditLogNotFound.
	Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error)

	// List returns entries newest first. Nil bounds are not applied; both bounds are inclusive.
	List(ctx context.Context, offset, limit int, createdAtFrom, createdAtTo *time.Time) ([]*rbacDomain.AuditLogEntry, error)
}

// UserCache is a read-through cache of users consulted by Authorize.
type UserCache interface {
	// Get returns the cached user and true on a hit.
	Get(ctx context.Context, id string) (*rbacDomain.User, bool, error)

	// Generation returns the invalidation generation of the user. Read it before loading
	// the user from the store and pass it to Set.
	Generation(ctx context.Context, id string) (int64, error)

	// Set stores user until the cache TTL expires, unless the user was invalidated since
	// generation was read.
	Set(ctx context.Context, user *rbacDomain.User, generation int64) error

	// Invalidate drops the cached users with ids and bumps their generations.
	Invalidate(ctx context.Context, ids ...string) error
}

// AuditRecorder appends audit entries on behalf of mutating operations.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) error
}

// AuthorizationUseCase defines the RBAC engine operations. The acting user is always an
// explicit parameter; there is no ambient authorization context.
type AuthorizationUseCase interface {
	// Authorize loads userID and returns ErrPermissionDenied unless its effective
	// permissions grant permission. Malformed permissions return ErrInvalidPermissionFormat.
	Authorize(ctx context.Context, userID, permission string) error

	// GetUser returns the user with userID, reading through the user cache when configured.
	GetUser(ctx context.Context, userID string) (*rbacDomain.User, error)

	// ValidateRoleChange runs the role-change guard pipeline without writing anything.
	ValidateRoleChange(ctx context.Context, actor *rbacDomain.User, targetID string, newRole rbacDomain.Role) error

	// ApplyRoleChange writes newRole for targetID without guard evaluation. Callers must
	// validate first; ChangeRole does both inside one transaction.
	ApplyRoleChange(ctx context.Context, targetID string, newRole rbacDomain.Role) (*rbacDomain.User, error)

	// ChangeRole validates and applies a role change in one serializable transaction,
	// then records a ROLE_CHANGE audit entry.
	ChangeRole(
		ctx context.Context,
		actor *rbacDomain.User,
		targetID string,
		newRole rbacDomain.Role,
	) (*rbacDomain.User, error)

	// BulkChangeRole changes the role of every target independently. Super-admin targets are
	// skipped, rejected targets are reported as failures and never abort the batch.
	BulkChangeRole(
		ctx context.Context,
		actor *rbacDomain.User,
		targetIDs []string,
		newRole rbacDomain.Role,
	) (*rbacDomain.BulkResult, error)

	// UpdatePermissions replaces the permission overrides of targetID and records a
	// PERMISSION_CHANGE audit entry.
	UpdatePermissions(
		ctx context.Context,
		actor *rbacDomain.User,
		targetID string,
		permissions []string,
	) (*rbacDomain.User, error)
}

// VerificationReport summarizes an audit log integrity check.
type VerificationReport struct {
	TotalChecked  int64       `json:"total_checked"`
	SignedCount   int64       `json:"signed_count"`
	UnsignedCount int64       `json:"unsigned_count"`
	ValidCount    int64       `json:"valid_count"`
	InvalidCount  int64       `json:"invalid_count"`
	InvalidLogs   []uuid.UUID `json:"invalid_logs"`
}

// Passed reports whether no signed entry failed verification.
func (r *VerificationReport) Passed() bool {
	return r.InvalidCount == 0
}

// AuditLogUseCase defines operations on the audit trail.
type AuditLogUseCase interface {
	// RecordAudit signs entry when a signing key is configured and appends it.
	// Failures are returned wrapped in ErrAuditWriteFailure.
	RecordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) error

	// Get returns a single entry.
	Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error)

	// List returns entries newest first with pagination and an optional time window.
	List(ctx context.Context, offset, limit int, createdAtFrom, createdAtTo *time.Time) ([]*rbacDomain.AuditLogEntry, error)

	// Verify checks the signature of a single entry.
	Verify(ctx context.Context, id uuid.UUID) error

	// VerifyBatch checks every entry created within [start, end].
	VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error)
}
