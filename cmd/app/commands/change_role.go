package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
	rbacUseCase "github.com/allisson/roleguard/internal/rbac/usecase"
)

// RunChangeRole changes the role of one user on behalf of actorID. The change is
// validated against every role guard and audited.
//
// Requirements: Database must be migrated and both users must exist.
func RunChangeRole(
	ctx context.Context,
	authorizationUseCase rbacUseCase.AuthorizationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	actorID, targetID, roleName string,
	format string,
) error {
	role, err := rbacDomain.ParseRole(roleName)
	if err != nil {
		return err
	}

	logger.Info("changing role",
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
		slog.String("new_role", role.String()),
	)

	actor, err := authorizationUseCase.GetUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}

	user, err := authorizationUseCase.ChangeRole(ctx, actor, targetID, role)
	if err != nil {
		if format == "json" {
			_ = writeJSON(writer, rejectionOutput(targetID, err))
		}
		return fmt.Errorf("failed to change role: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, userOutput(user))
	}

	_, _ = fmt.Fprintln(writer, "Role changed successfully")
	_, _ = fmt.Fprintln(writer)
	writeUserText(writer, user)
	return nil
}

// RunBulkChangeRole assigns roleName to every user in the comma separated targetIDs.
// Individual rejections are reported without aborting the batch. Returns an error when
// at least one target failed so scripts can detect partial failures.
func RunBulkChangeRole(
	ctx context.Context,
	authorizationUseCase rbacUseCase.AuthorizationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	actorID, targetIDs, roleName string,
	format string,
) error {
	role, err := rbacDomain.ParseRole(roleName)
	if err != nil {
		return err
	}

	ids := splitList(targetIDs)
	if len(ids) == 0 {
		return fmt.Errorf("at least one target ID is required")
	}

	actor, err := authorizationUseCase.GetUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}

	result, err := authorizationUseCase.BulkChangeRole(ctx, actor, ids, role)
	if result == nil {
		return fmt.Errorf("failed to change roles: %w", err)
	}

	if format == "json" {
		if jsonErr := writeJSON(writer, result); jsonErr != nil {
			return jsonErr
		}
	} else {
		writeBulkText(writer, result, role)
	}

	logger.Info("bulk role change finished",
		slog.Int("updated", result.Updated),
		slog.Int("failed", len(result.Failed)),
		slog.Int("skipped", len(result.Skipped)),
	)

	if err != nil {
		return fmt.Errorf("bulk role change interrupted: %w", err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("bulk role change completed with %d failure(s)", len(result.Failed))
	}
	return nil
}

func writeBulkText(writer io.Writer, result *rbacDomain.BulkResult, role rbacDomain.Role) {
	_, _ = fmt.Fprintf(writer, "Bulk Role Change to %s\n", role)
	_, _ = fmt.Fprintf(writer, "=================================\n\n")
	_, _ = fmt.Fprintf(writer, "Updated:  %d\n", result.Updated)
	_, _ = fmt.Fprintf(writer, "Failed:   %d\n", len(result.Failed))
	_, _ = fmt.Fprintf(writer, "Skipped:  %d\n", len(result.Skipped))

	if len(result.Failed) > 0 {
		_, _ = fmt.Fprintf(writer, "\nFailures:\n")
		for _, failure := range result.Failed {
			_, _ = fmt.Fprintf(writer, "  - %s: %s\n", failure.TargetID, failure.Reason)
		}
	}

	if len(result.Skipped) > 0 {
		_, _ = fmt.Fprintf(writer, "\nSkipped:\n")
		for _, skip := range result.Skipped {
			_, _ = fmt.Fprintf(writer, "  - %s: %s\n", skip.TargetID, skip.Reason)
		}
	}
}

// userOutput is the JSON shape of a user printed by the role and permission commands.
func userOutput(user *rbacDomain.User) map[string]any {
	return map[string]any{
		"id":                    user.ID,
		"email":                 user.Email,
		"role":                  user.Role.String(),
		"role_level":            user.Role.Level(),
		"permissions":           permissionStrings(user.Permissions),
		"effective_permissions": permissionStrings(user.EffectivePermissions()),
		"updated_at":            user.UpdatedAt.Format(time.RFC3339),
	}
}

func rejectionOutput(targetID string, err error) map[string]any {
	return map[string]any{
		"target_id": targetID,
		"status":    "rejected",
		"reason":    rbacDomain.ReasonCode(err),
		"retryable": rbacDomain.IsRetryable(err),
	}
}

func writeUserText(writer io.Writer, user *rbacDomain.User) {
	_, _ = fmt.Fprintf(writer, "User ID:      %s\n", user.ID)
	_, _ = fmt.Fprintf(writer, "Email:        %s\n", user.Email)
	_, _ = fmt.Fprintf(writer, "Role:         %s (level %d)\n", user.Role, user.Role.Level())
	_, _ = fmt.Fprintf(writer, "Overrides:    %d\n", len(user.Permissions))
	for _, p := range user.Permissions {
		_, _ = fmt.Fprintf(writer, "  - %s\n", p)
	}
}
