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

// MySQLUserRepository handles user authorization records for MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Get retrieves a user by ID. Returns ErrUserNotFound when no row matches.
func (r *MySQLUserRepository) Get(ctx context.Context, id string) (*rbacDomain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, name, role, role_level, permissions, created_at, updated_at
			  FROM users WHERE id = ?`

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
//
// MySQL reports zero affected rows when the new values equal the old ones, so the
// statement always bumps updated_at to keep the not-found check meaningful.
func (r *MySQLUserRepository) UpdateRole(ctx context.Context, id string, role rbacDomain.Role) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET role = ?, role_level = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, role.String(), role.Level(), time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user role")
	}

	return checkAffected(result, "failed to update user role")
}

// UpdatePermissions replaces the permission overrides of a user.
func (r *MySQLUserRepository) UpdatePermissions(
	ctx context.Context,
	id string,
	permissions []rbacDomain.Permission,
) error {
	querier := database.GetTx(ctx, r.db)

	permissionsJSON, err := marshalPermissions(permissions)
	if err != nil {
		return err
	}

	query := `UPDATE users SET permissions = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, permissionsJSON, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update user permissions")
	}

	return checkAffected(result, "failed to update user permissions")
}

// CountByRole returns how many users currently hold role.
func (r *MySQLUserRepository) CountByRole(ctx context.Context, role rbacDomain.Role) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM users WHERE role = ?`
	if err := querier.QueryRowContext(ctx, query, role.String()).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count users by role")
	}

	return count, nil
}
