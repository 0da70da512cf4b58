package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/roleguard/internal/metrics"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// metricsDomain is the domain label recorded for every RBAC operation.
const metricsDomain = "rbac"

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	metrics.Observe(ctx, m, metricsDomain, operation, start, err)
}

// authorizationUseCaseWithMetrics decorates AuthorizationUseCase with metrics instrumentation.
type authorizationUseCaseWithMetrics struct {
	next    AuthorizationUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthorizationUseCaseWithMetrics wraps an AuthorizationUseCase with metrics recording.
func NewAuthorizationUseCaseWithMetrics(useCase AuthorizationUseCase, m metrics.BusinessMetrics) AuthorizationUseCase {
	return &authorizationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authorize records metrics for permission checks. A denial is recorded as "forbidden".
func (a *authorizationUseCaseWithMetrics) Authorize(ctx context.Context, userID, permission string) error {
	start := time.Now()
	err := a.next.Authorize(ctx, userID, permission)
	record(ctx, a.metrics, "authorize", start, err)
	return err
}

// GetUser records metrics for user lookups.
func (a *authorizationUseCaseWithMetrics) GetUser(ctx context.Context, userID string) (*rbacDomain.User, error) {
	start := time.Now()
	user, err := a.next.GetUser(ctx, userID)
	record(ctx, a.metrics, "user_get", start, err)
	return user, err
}

// ValidateRoleChange records metrics for role change validation.
func (a *authorizationUseCaseWithMetrics) ValidateRoleChange(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) error {
	start := time.Now()
	err := a.next.ValidateRoleChange(ctx, actor, targetID, newRole)
	record(ctx, a.metrics, "role_change_validate", start, err)
	return err
}

// ApplyRoleChange records metrics for unguarded role writes.
func (a *authorizationUseCaseWithMetrics) ApplyRoleChange(
	ctx context.Context,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	start := time.Now()
	user, err := a.next.ApplyRoleChange(ctx, targetID, newRole)
	record(ctx, a.metrics, "role_change_apply", start, err)
	return user, err
}

// ChangeRole records metrics for guarded role changes.
func (a *authorizationUseCaseWithMetrics) ChangeRole(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	start := time.Now()
	user, err := a.next.ChangeRole(ctx, actor, targetID, newRole)
	record(ctx, a.metrics, "role_change", start, err)
	return user, err
}

// BulkChangeRole records metrics for bulk role changes plus per-target outcome counts.
// Per-target failures do not count as an error of the batch.
func (a *authorizationUseCaseWithMetrics) BulkChangeRole(
	ctx context.Context,
	actor *rbacDomain.User,
	targetIDs []string,
	newRole rbacDomain.Role,
) (*rbacDomain.BulkResult, error) {
	start := time.Now()
	result, err := a.next.BulkChangeRole(ctx, actor, targetIDs, newRole)
	record(ctx, a.metrics, "role_change_bulk", start, err)
	if result != nil {
		a.metrics.RecordBulkTargets(ctx, metrics.BulkUpdated, result.Updated)
		a.metrics.RecordBulkTargets(ctx, metrics.BulkSkipped, len(result.Skipped))
		a.metrics.RecordBulkTargets(ctx, metrics.BulkFailed, len(result.Failed))
	}
	return result, err
}

// UpdatePermissions records metrics for permission override edits.
func (a *authorizationUseCaseWithMetrics) UpdatePermissions(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	permissions []string,
) (*rbacDomain.User, error) {
	start := time.Now()
	user, err := a.next.UpdatePermissions(ctx, actor, targetID, permissions)
	record(ctx, a.metrics, "permission_change", start, err)
	return user, err
}

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// RecordAudit records metrics for audit log writes.
func (a *auditLogUseCaseWithMetrics) RecordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	start := time.Now()
	err := a.next.RecordAudit(ctx, entry)
	record(ctx, a.metrics, "audit_log_record", start, err)
	return err
}

// Get records metrics for audit log retrieval.
func (a *auditLogUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error) {
	start := time.Now()
	entry, err := a.next.Get(ctx, id)
	record(ctx, a.metrics, "audit_log_get", start, err)
	return entry, err
}

// List records metrics for audit log listing.
func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*rbacDomain.AuditLogEntry, error) {
	start := time.Now()
	entries, err := a.next.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	record(ctx, a.metrics, "audit_log_list", start, err)
	return entries, err
}

// Verify records metrics for single entry verification.
func (a *auditLogUseCaseWithMetrics) Verify(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := a.next.Verify(ctx, id)
	record(ctx, a.metrics, "audit_log_verify", start, err)
	return err
}

// VerifyBatch records metrics for batch verification.
func (a *auditLogUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*VerificationReport, error) {
	began := time.Now()
	report, err := a.next.VerifyBatch(ctx, start, end)
	record(ctx, a.metrics, "audit_log_verify_batch", began, err)
	return report, err
}
