// Package commands implements the roleguard CLI actions. Each Run* function takes its
// collaborators and an output writer so it can be driven from tests.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/roleguard/internal/app"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// Output is where command results are printed.
var Output io.Writer = os.Stdout

func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		logger.Error("failed to close migrations",
			slog.Any("source_error", sourceErr),
			slog.Any("database_error", dbErr),
		)
	}
}

// splitList splits a comma separated flag value, trimming items and dropping empty ones.
func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func permissionStrings(permissions []rbacDomain.Permission) []string {
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		out = append(out, p.String())
	}
	return out
}

func writeJSON(writer io.Writer, value any) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
