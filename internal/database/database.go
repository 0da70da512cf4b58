// Package database opens the user and audit log store and runs work inside transactions.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	apperrors "github.com/allisson/roleguard/internal/errors"
)

// DefaultPingTimeout bounds the connectivity check performed by Connect.
const DefaultPingTimeout = 5 * time.Second

// Config holds the connection pool settings for the store.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	PingTimeout        time.Duration
}

// Connect opens a pool for one of the supported drivers and pings it before returning.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case "postgres", "mysql":
	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("failed to ping database: %v", err))
	}

	return db, nil
}
