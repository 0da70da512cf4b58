package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationOptions tunes RunMigrations. Dir holds one sub-directory per dialect
// ("postgresql" and "mysql"). Steps moves the schema that many versions, down when
// negative; zero applies every pending migration.
type MigrationOptions struct {
	Dir   string
	Steps int
}

// RunMigrations brings the users and audit_logs schema to the requested version.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string, opts MigrationOptions) error {
	source, err := migrationSource(opts.Dir, dbDriver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
		slog.String("source", source),
		slog.Int("steps", opts.Steps),
	)

	m, err := migrate.New(source, migrationURL(dbDriver, dbConnectionString))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if opts.Steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(opts.Steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("migrations completed",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

func migrationSource(dir, dbDriver string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	switch dbDriver {
	case "postgres":
		return "file://" + path.Join(dir, "postgresql"), nil
	case "mysql":
		return "file://" + path.Join(dir, "mysql"), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", dbDriver)
	}
}

// migrationURL adapts a go-sql-driver DSN (user:pass@tcp(host)/db) to the mysql:// URL
// form migrate expects. Postgres URLs are used as is.
func migrationURL(dbDriver, dbConnectionString string) string {
	if dbDriver == "mysql" && !strings.HasPrefix(dbConnectionString, "mysql://") {
		return "mysql://" + dbConnectionString
	}
	return dbConnectionString
}
