package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/allisson/roleguard/internal/errors"
)

type txKey struct{}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs a unit of work atomically. Repositories resolve the active
// transaction from the context passed to fn with GetTx.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTxManager struct {
	db        *sql.DB
	isolation sql.IsolationLevel
}

// NewTxManager returns a TxManager whose transactions run at isolation. Role changes use
// sql.LevelSerializable so the last-admin count and the write see the same snapshot.
func NewTxManager(db *sql.DB, isolation sql.IsolationLevel) TxManager {
	return &sqlTxManager{db: db, isolation: isolation}
}

// WithTx commits when fn returns nil and rolls back otherwise, including when fn panics.
// A call made while a transaction is already bound to ctx joins that transaction.
// Begin and commit failures wrap apperrors.ErrUnavailable; errors returned by fn are
// passed through unchanged.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: m.isolation})
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrUnavailable, err)
	}

	committed := false
	defer func() {
		if !committed {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p)
			}
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}

	committed = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrUnavailable, err)
	}
	return nil
}

// InTx reports whether ctx carries a transaction started by WithTx.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// GetTx returns the transaction bound to ctx, or db when there is none.
func GetTx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
