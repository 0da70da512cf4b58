package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/roleguard/internal/database"
	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

const postgresAuditLogColumns = `id, actor_id, actor_email, target_id, target_email, action,
			  old_value, new_value, signature, is_signed, created_at`

// PostgreSQLAuditLogRepository implements append-only audit log persistence for PostgreSQL.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL audit log repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Append inserts an audit log entry. Nil snapshots are stored as NULL.
func (p *PostgreSQLAuditLogRepository) Append(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	querier := database.GetTx(ctx, p.db)

	oldValue, err := marshalSnapshot(entry.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalSnapshot(entry.NewValue)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (` + postgresAuditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.ActorID,
		entry.ActorEmail,
		entry.TargetID,
		entry.TargetEmail,
		string(entry.Action),
		oldValue,
		newValue,
		entry.Signature,
		entry.IsSigned,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// Get retrieves a single audit log entry by ID.
func (p *PostgreSQLAuditLogRepository) Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresAuditLogColumns + ` FROM audit_logs WHERE id = $1`

	entry, err := scanPostgresAuditLog(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbacDomain.ErrAuditLogNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}

	return entry, nil
}

// List retrieves audit log entries ordered by created_at descending with pagination and
// optional inclusive time bounds. A nil bound means no filter.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*rbacDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any

	if createdAtFrom != nil {
		args = append(args, *createdAtFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if createdAtTo != nil {
		args = append(args, *createdAtTo)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT ` + postgresAuditLogColumns + ` FROM audit_logs`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*rbacDomain.AuditLogEntry, 0)
	for rows.Next() {
		entry, err := scanPostgresAuditLog(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresAuditLog(row rowScanner) (*rbacDomain.AuditLogEntry, error) {
	var entry rbacDomain.AuditLogEntry
	var action string
	var oldValue, newValue []byte

	err := row.Scan(
		&entry.ID,
		&entry.ActorID,
		&entry.ActorEmail,
		&entry.TargetID,
		&entry.TargetEmail,
		&action,
		&oldValue,
		&newValue,
		&entry.Signature,
		&entry.IsSigned,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Action = rbacDomain.AuditAction(action)
	entry.CreatedAt = entry.CreatedAt.UTC()

	if entry.OldValue, err = unmarshalSnapshot(oldValue); err != nil {
		return nil, err
	}
	if entry.NewValue, err = unmarshalSnapshot(newValue); err != nil {
		return nil, err
	}

	return &entry, nil
}
