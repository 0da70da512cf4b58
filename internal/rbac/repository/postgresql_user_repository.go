package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/roleguard/internal/database"
	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// PostgreSQLUserRepository handles user authorization records for PostgreSQL.
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Get retrieves a user by ID. Returns ErrUserNotFound when no row matches.
func (r *PostgreSQLUserRepository) Get(ctx context.Context, id string) (*rbacDomain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, name, role, role_level, permissions, created_at, updated_at
			  FROM users WHERE id = $1`

	var row userRow
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&row.user.ID,
		&row.user.Email,
		&row.user.Name,
		&row.role,
		&row.user.RoleLevel,
		&row.permissionsJSON,
		&row.user.CreatedAt,
		&row.user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbacDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	return row.decode()
}

// UpdateRole sets the role of a user and recomputes the denormalized role_level.
func (r *PostgreSQLUserRepository) UpdateRole(ctx context.Context, id string, role rbacDomain.Role) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET role = $1, role_level = $2, updated_at = $3 WHERE id = $4`

	result, err := querier.ExecContext(ctx, query, role.String(), role.Level(), time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user role")
	}

	return checkAffected(result, "failed to update user role")
}

// UpdatePermissions replaces the permission overrides of a user.
func (r *PostgreSQLUserRepository) UpdatePermissions(
	ctx context.Context,
	id string,
	permissions []rbacDomain.Permission,
) error {
	querier := database.GetTx(ctx, r.db)

	permissionsJSON, err := marshalPermissions(permissions)
	if err != nil {
		return err
	}

	query := `UPDATE users SET permissions = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, permissionsJSON, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user permissions")
	}

	return checkAffected(result, "failed to update user permissions")
}

// CountByRole returns how many users currently hold role.
func (r *PostgreSQLUserRepository) CountByRole(ctx context.Context, role rbacDomain.Role) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM users WHERE role = $1`
	if err := querier.QueryRowContext(ctx, query, role.String()).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count users by role")
	}

	return count, nil
}

// checkAffected maps an update that matched no row to ErrUserNotFound.
func checkAffected(result sql.Result, message string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if rows == 0 {
		return rbacDomain.ErrUserNotFound
	}
	return nil
}
