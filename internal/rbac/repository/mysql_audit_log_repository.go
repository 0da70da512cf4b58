package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/roleguard/internal/database"
	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

const mysqlAuditLogColumns = `id, actor_id, actor_email, target_id, target_email, action,
			  old_value, new_value, signature, is_signed, created_at`

// MySQLAuditLogRepository implements append-only audit log persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// NewMySQLAuditLogRepository creates a new MySQL audit log repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}

// Append inserts an audit log entry. Nil snapshots are stored as NULL.
func (m *MySQLAuditLogRepository) Append(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	oldValue, err := marshalSnapshot(entry.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalSnapshot(entry.NewValue)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (` + mysqlAuditLogColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLAuditLogRepository) Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log id")
	}

	query := `SELECT ` + mysqlAuditLogColumns + ` FROM audit_logs WHERE id = ?`

	entry, err := scanMySQLAuditLog(querier.QueryRowContext(ctx, query, idBinary))
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
func (m *MySQLAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*rbacDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any

	if createdAtFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *createdAtFrom)
	}

	if createdAtTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *createdAtTo)
	}

	query := `SELECT ` + mysqlAuditLogColumns + ` FROM audit_logs`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
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
		entry, err := scanMySQLAuditLog(rows)
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

func scanMySQLAuditLog(row rowScanner) (*rbacDomain.AuditLogEntry, error) {
	var entry rbacDomain.AuditLogEntry
	var idBinary []byte
	var action string
	var oldValue, newValue []byte

	err := row.Scan(
		&idBinary,
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

	if err := entry.ID.UnmarshalBinary(idBinary); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
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
