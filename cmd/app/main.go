// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	apperrors "github.com/allisson/roleguard/internal/errors"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:     "roleguard",
		Usage:    "Role-based access control engine",
		Version:  version,
		Commands: getCommands(version),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error",
			slog.Any("error", err),
			slog.String("kind", apperrors.Kind(err)),
		)
		os.Exit(apperrors.ExitCode(err))
	}
}
