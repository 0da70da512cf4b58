package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/roleguard/internal/database"
	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
	"github.com/allisson/roleguard/internal/rbac/service"
	appValidation "github.com/allisson/roleguard/internal/validation"
)

// errBulkSkip marks a bulk target that turned out to be a super-admin inside its transaction.
var errBulkSkip = apperrors.New("bulk target skipped")

// authorizationUseCase implements AuthorizationUseCase.
type authorizationUseCase struct {
	txManager     database.TxManager
	userRepo      UserRepository
	userCache     UserCache
	guard         service.RoleGuard
	auditRecorder AuditRecorder
	logger        *slog.Logger
}

// NewAuthorizationUseCase creates a new AuthorizationUseCase. userCache may be nil, in
// which case every lookup goes to userRepo.
func NewAuthorizationUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	userCache UserCache,
	guard service.RoleGuard,
	auditRecorder AuditRecorder,
	logger *slog.Logger,
) AuthorizationUseCase {
	return &authorizationUseCase{
		txManager:     txManager,
		userRepo:      userRepo,
		userCache:     userCache,
		guard:         guard,
		auditRecorder: auditRecorder,
		logger:        logger,
	}
}

// validateUserID rejects blank, padded or oversized user ids before any lookup.
func validateUserID(id string) error {
	err := validation.Validate(id, appValidation.UserID...)
	if err != nil {
		return appValidation.WrapValidationError(fmt.Errorf("user id: %w", err))
	}
	return nil
}

// persistenceError wraps store failures in ErrPersistenceFailure. Not-found errors and
// stored values that fail to decode pass through, since retrying cannot change them.
func persistenceError(err error) error {
	if apperrors.Is(err, apperrors.ErrNotFound) ||
		apperrors.Is(err, apperrors.ErrInvalidInput) ||
		apperrors.Is(err, rbacDomain.ErrPersistenceFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", rbacDomain.ErrPersistenceFailure, err)
}

// txError classifies a WithTx result. Domain errors returned by the transaction body pass
// through. Begin and commit failures, including serialization failures reported at
// commit, become ErrPersistenceFailure.
func txError(err error) error {
	switch {
	case err == nil,
		apperrors.Is(err, errBulkSkip),
		apperrors.Is(err, context.Canceled),
		apperrors.Is(err, context.DeadlineExceeded):
		return err
	case apperrors.Kind(err) != "internal" && !apperrors.Is(err, apperrors.ErrUnavailable):
		return err
	}
	return persistenceError(err)
}

// requirePermission returns ErrPermissionDenied unless actor holds permission.
func requirePermission(actor *rbacDomain.User, permission rbacDomain.Permission) error {
	if actor == nil {
		return rbacDomain.ErrPermissionDenied
	}
	if !actor.Role.IsValid() {
		return rbacDomain.ErrInvalidRoleValue
	}
	ok, err := actor.HasPermission(permission.String())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", rbacDomain.ErrPermissionDenied, permission)
	}
	return nil
}

// Authorize checks permission for userID.
func (a *authorizationUseCase) Authorize(ctx context.Context, userID, permission string) error {
	if _, err := rbacDomain.ParsePermission(permission); err != nil {
		return err
	}

	user, err := a.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := user.HasPermission(permission)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", rbacDomain.ErrPermissionDenied, permission)
	}

	return nil
}

// GetUser reads through the user cache. Cache failures degrade to a store read.
func (a *authorizationUseCase) GetUser(ctx context.Context, userID string) (*rbacDomain.User, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	cacheable := a.userCache != nil
	var generation int64
	if cacheable {
		user, ok, err := a.userCache.Get(ctx, userID)
		if err != nil {
			a.logger.Warn("user cache read failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		if ok {
			return user, nil
		}

		generation, err = a.userCache.Generation(ctx, userID)
		if err != nil {
			// Without a generation the fill could race an invalidation.
			a.logger.Warn("user cache generation read failed", slog.String("user_id", userID), slog.Any("error", err))
			cacheable = false
		}
	}

	user, err := a.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, persistenceError(err)
	}

	if cacheable {
		if err := a.userCache.Set(ctx, user, generation); err != nil {
			a.logger.Warn("user cache write failed", slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	return user, nil
}

// evaluate loads the target and the holder count the guards need, then runs the guard
// pipeline. It must run inside a transaction so the count and the following write are
// consistent. The returned target is nil when it does not exist.
func (a *authorizationUseCase) evaluate(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	if actor == nil {
		return nil, rbacDomain.ErrPermissionDenied
	}
	if !actor.Role.IsValid() || !newRole.IsValid() {
		return nil, rbacDomain.ErrInvalidRoleValue
	}
	if err := validateUserID(targetID); err != nil {
		return nil, err
	}

	transition := service.Transition{
		ActorRole:   actor.Role,
		ActorIsSelf: actor.ID == targetID,
		Requested:   newRole,
	}

	target, err := a.userRepo.Get(ctx, targetID)
	switch {
	case apperrors.Is(err, rbacDomain.ErrUserNotFound):
		target = nil
	case err != nil:
		return nil, persistenceError(err)
	default:
		transition.TargetExists = true
		transition.Current = target.Role
	}

	if transition.TargetExists {
		if counted, ok := a.guard.CountedRole(transition.Current, newRole); ok {
			count, err := a.userRepo.CountByRole(ctx, counted)
			if err != nil {
				return nil, persistenceError(err)
			}
			switch counted {
			case rbacDomain.RoleAdmin:
				transition.AdminCount = count
			case rbacDomain.RoleSuperAdmin:
				transition.SuperAdminCount = count
			}
		}
	}

	if err := a.guard.Evaluate(transition); err != nil {
		return nil, err
	}

	return target, nil
}

// ValidateRoleChange runs the guard pipeline inside a serializable transaction.
func (a *authorizationUseCase) ValidateRoleChange(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) error {
	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		_, err := a.evaluate(ctx, actor, targetID, newRole)
		return err
	})
	return txError(err)
}

// writeRole persists newRole and returns the updated copy of target.
func (a *authorizationUseCase) writeRole(
	ctx context.Context,
	target *rbacDomain.User,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	if err := a.userRepo.UpdateRole(ctx, target.ID, newRole); err != nil {
		if apperrors.Is(err, rbacDomain.ErrUserNotFound) {
			return nil, rbacDomain.ErrTargetNotFound
		}
		return nil, persistenceError(err)
	}

	updated := *target
	updated.Role = newRole
	updated.RoleLevel = newRole.Level()
	updated.UpdatedAt = time.Now().UTC()
	return &updated, nil
}

// ApplyRoleChange writes newRole for targetID.
func (a *authorizationUseCase) ApplyRoleChange(
	ctx context.Context,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	if !newRole.IsValid() {
		return nil, rbacDomain.ErrInvalidRoleValue
	}
	if err := validateUserID(targetID); err != nil {
		return nil, err
	}

	var updated *rbacDomain.User
	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		target, err := a.userRepo.Get(ctx, targetID)
		if err != nil {
			if apperrors.Is(err, rbacDomain.ErrUserNotFound) {
				return rbacDomain.ErrTargetNotFound
			}
			return persistenceError(err)
		}

		updated, err = a.writeRole(ctx, target, newRole)
		return err
	})
	if err = txError(err); err != nil {
		return nil, err
	}

	a.invalidate(ctx, targetID)
	return updated, nil
}

// ChangeRole validates and applies a role change, then audits it.
func (a *authorizationUseCase) ChangeRole(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	if err := requirePermission(actor, rbacDomain.PermissionUsersEdit); err != nil {
		return nil, err
	}

	var before, after *rbacDomain.User
	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		target, err := a.evaluate(ctx, actor, targetID, newRole)
		if err != nil {
			return err
		}

		before = target
		if target.Role == newRole {
			after = target
			return nil
		}

		after, err = a.writeRole(ctx, target, newRole)
		return err
	})
	if err = txError(err); err != nil {
		a.logDenied(actor, targetID, "role change", err)
		return nil, err
	}

	if before.Role == after.Role {
		return after, nil
	}

	a.invalidate(ctx, targetID)
	a.recordAudit(ctx, rbacDomain.NewAuditLogEntry(
		actor, after, rbacDomain.AuditActionRoleChange, before.RoleSnapshot(), after.RoleSnapshot(),
	))

	a.logger.Info("role changed",
		slog.String("actor_id", actor.ID),
		slog.String("target_id", targetID),
		slog.String("old_role", before.Role.String()),
		slog.String("new_role", after.Role.String()),
	)

	return after, nil
}

// BulkChangeRole changes the role of each target sequentially, one transaction per target.
//
// The first pass loads every target outside any transaction: missing targets fail and
// super-admin targets are skipped. If the actor is among the remaining targets and the
// new role would demote them, the whole call is rejected with ErrSelfDemotionDenied.
// The second pass validates and applies each target in its own transaction.
//
// A cancelled ctx stops the batch and returns the partial result together with ctx.Err().
func (a *authorizationUseCase) BulkChangeRole(
	ctx context.Context,
	actor *rbacDomain.User,
	targetIDs []string,
	newRole rbacDomain.Role,
) (*rbacDomain.BulkResult, error) {
	if err := requirePermission(actor, rbacDomain.PermissionUsersEdit); err != nil {
		return nil, err
	}
	if !newRole.IsValid() {
		return nil, rbacDomain.ErrInvalidRoleValue
	}

	result := rbacDomain.NewBulkResult()

	processable := make([]string, 0, len(targetIDs))
	actorIsProcessable := false
	for _, id := range dedupe(targetIDs) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := validateUserID(id); err != nil {
			result.AddFailure(id, rbacDomain.ErrTargetNotFound)
			continue
		}

		target, err := a.userRepo.Get(ctx, id)
		if err != nil {
			if apperrors.Is(err, rbacDomain.ErrUserNotFound) {
				result.AddFailure(id, rbacDomain.ErrTargetNotFound)
			} else {
				result.AddFailure(id, persistenceError(err))
			}
			continue
		}

		if target.Role == rbacDomain.RoleSuperAdmin {
			result.AddSkip(id, rbacDomain.SkipReasonSuperAdminExcluded)
			continue
		}

		if id == actor.ID {
			actorIsProcessable = true
		}
		processable = append(processable, id)
	}

	if actorIsProcessable && newRole.Level() < actor.Role.Level() {
		a.logDenied(actor, actor.ID, "bulk role change", rbacDomain.ErrSelfDemotionDenied)
		return nil, rbacDomain.ErrSelfDemotionDenied
	}

	for _, id := range processable {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var before, after *rbacDomain.User
		err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
			target, err := a.evaluate(ctx, actor, id, newRole)
			if err != nil {
				return err
			}
			if target.Role == rbacDomain.RoleSuperAdmin {
				return errBulkSkip
			}

			before = target
			if target.Role == newRole {
				after = target
				return nil
			}

			after, err = a.writeRole(ctx, target, newRole)
			return err
		})
		err = txError(err)

		switch {
		case apperrors.Is(err, errBulkSkip):
			result.AddSkip(id, rbacDomain.SkipReasonSuperAdminExcluded)
			continue
		case err != nil:
			a.logDenied(actor, id, "bulk role change", err)
			result.AddFailure(id, err)
			continue
		}

		result.AddUpdated(id)
		if before.Role == after.Role {
			continue
		}

		a.invalidate(ctx, id)
		a.recordAudit(ctx, rbacDomain.NewAuditLogEntry(
			actor, after, rbacDomain.AuditActionRoleChange, before.RoleSnapshot(), after.RoleSnapshot(),
		))
	}

	a.logger.Info("bulk role change completed",
		slog.String("actor_id", actor.ID),
		slog.String("new_role", newRole.String()),
		slog.Int("updated", result.Updated),
		slog.Int("failed", len(result.Failed)),
		slog.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}

// UpdatePermissions replaces the permission overrides of targetID. The actor needs
// users.edit_permissions and must be able to manage the target.
func (a *authorizationUseCase) UpdatePermissions(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	permissions []string,
) (*rbacDomain.User, error) {
	if err := requirePermission(actor, rbacDomain.PermissionUsersEditPermissions); err != nil {
		return nil, err
	}
	if err := validateUserID(targetID); err != nil {
		return nil, err
	}

	overrides, err := rbacDomain.NormalizeOverrides(permissions)
	if err != nil {
		return nil, err
	}

	var before, after *rbacDomain.User
	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		target, err := a.userRepo.Get(ctx, targetID)
		if err != nil {
			if apperrors.Is(err, rbacDomain.ErrUserNotFound) {
				return rbacDomain.ErrTargetNotFound
			}
			return persistenceError(err)
		}

		if !rbacDomain.CanManage(actor, target) {
			return rbacDomain.ErrCannotManageTarget
		}

		if err := a.userRepo.UpdatePermissions(ctx, targetID, overrides); err != nil {
			if apperrors.Is(err, rbacDomain.ErrUserNotFound) {
				return rbacDomain.ErrTargetNotFound
			}
			return persistenceError(err)
		}

		before = target
		updated := *target
		updated.Permissions = overrides
		updated.UpdatedAt = time.Now().UTC()
		after = &updated
		return nil
	})
	if err = txError(err); err != nil {
		a.logDenied(actor, targetID, "permission change", err)
		return nil, err
	}

	a.invalidate(ctx, targetID)
	a.recordAudit(ctx, rbacDomain.NewAuditLogEntry(
		actor, after, rbacDomain.AuditActionPermissionChange, before.PermissionSnapshot(), after.PermissionSnapshot(),
	))

	a.logger.Info("permissions changed",
		slog.String("actor_id", actor.ID),
		slog.String("target_id", targetID),
		slog.Int("overrides", len(overrides)),
	)

	return after, nil
}

// recordAudit appends entry. Failures are logged and never propagated: the mutation the
// entry describes has already committed.
func (a *authorizationUseCase) recordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) {
	if a.auditRecorder == nil {
		return
	}
	if err := a.auditRecorder.RecordAudit(ctx, entry); err != nil {
		a.logger.Error("failed to record audit log",
			slog.String("failure", rbacDomain.ReasonCode(rbacDomain.ErrAuditWriteFailure)),
			slog.String("audit_log_id", entry.ID.String()),
			slog.String("action", string(entry.Action)),
			slog.String("actor_id", entry.ActorID),
			slog.String("target_id", entry.TargetID),
			slog.Any("error", err),
		)
	}
}

func (a *authorizationUseCase) invalidate(ctx context.Context, ids ...string) {
	if a.userCache == nil {
		return
	}
	if err := a.userCache.Invalidate(ctx, ids...); err != nil {
		a.logger.Warn("user cache invalidation failed", slog.Any("user_ids", ids), slog.Any("error", err))
	}
}

// logDenied logs rejected operations with their reason code. Persistence failures log at
// ERROR, everything else at WARN.
func (a *authorizationUseCase) logDenied(actor *rbacDomain.User, targetID, operation string, err error) {
	level := slog.LevelWarn
	if rbacDomain.IsRetryable(err) {
		level = slog.LevelError
	}
	a.logger.LogAttrs(context.Background(), level, operation+" rejected",
		slog.String("actor_id", actor.ID),
		slog.String("target_id", targetID),
		slog.String("reason", rbacDomain.ReasonCode(err)),
		slog.Any("error", err),
	)
}

// dedupe removes repeated ids, keeping the first occurrence.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
