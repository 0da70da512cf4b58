package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	rbacUseCase "github.com/allisson/roleguard/internal/rbac/usecase"
)

// RunSetPermissions replaces the permission overrides of targetID with the comma
// separated permissions. An empty list clears every override.
//
// Requirements: the actor must hold users.edit_permissions and manage the target.
func RunSetPermissions(
	ctx context.Context,
	authorizationUseCase rbacUseCase.AuthorizationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	actorID, targetID, permissions string,
	format string,
) error {
	overrides := splitList(permissions)

	logger.Info("setting permissions",
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
		slog.Int("count", len(overrides)),
	)

	actor, err := authorizationUseCase.GetUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}

	user, err := authorizationUseCase.UpdatePermissions(ctx, actor, targetID, overrides)
	if err != nil {
		if format == "json" {
			_ = writeJSON(writer, rejectionOutput(targetID, err))
		}
		return fmt.Errorf("failed to update permissions: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, userOutput(user))
	}

	_, _ = fmt.Fprintln(writer, "Permissions updated successfully")
	_, _ = fmt.Fprintln(writer)
	writeUserText(writer, user)
	return nil
}
