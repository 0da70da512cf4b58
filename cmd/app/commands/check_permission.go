package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
	rbacUseCase "github.com/allisson/roleguard/internal/rbac/usecase"
)

// RunCheckPermission reports whether userID holds permission and lists the user's
// effective permissions. A denial is printed and returned as ErrPermissionDenied.
func RunCheckPermission(
	ctx context.Context,
	authorizationUseCase rbacUseCase.AuthorizationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID, permission string,
	format string,
) error {
	authErr := authorizationUseCase.Authorize(ctx, userID, permission)
	if authErr != nil && !errors.Is(authErr, rbacDomain.ErrPermissionDenied) {
		return fmt.Errorf("failed to check permission: %w", authErr)
	}
	allowed := authErr == nil

	user, err := authorizationUseCase.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	effective := permissionStrings(user.EffectivePermissions())

	if format == "json" {
		output := map[string]any{
			"user_id":               user.ID,
			"role":                  user.Role.String(),
			"permission":            permission,
			"allowed":               allowed,
			"effective_permissions": effective,
		}
		if err := writeJSON(writer, output); err != nil {
			return err
		}
	} else {
		result := "ALLOWED"
		if !allowed {
			result = "DENIED"
		}
		_, _ = fmt.Fprintf(writer, "User:        %s (%s)\n", user.ID, user.Role)
		_, _ = fmt.Fprintf(writer, "Permission:  %s\n", permission)
		_, _ = fmt.Fprintf(writer, "Result:      %s\n\n", result)
		_, _ = fmt.Fprintf(writer, "Effective Permissions:\n")
		for _, p := range effective {
			_, _ = fmt.Fprintf(writer, "  - %s\n", p)
		}
	}

	logger.Debug("permission checked",
		slog.String("user_id", userID),
		slog.String("permission", permission),
		slog.Bool("allowed", allowed),
	)

	return authErr
}
