package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

func TestMySQLUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("u-1", "u-1@example.com", "Jane", "VIEWER", 1, []byte(`["products.*"]`), now, now))

		user, err := repo.Get(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, rbacDomain.RoleViewer, user.Role)
		assert.Equal(t, []rbacDomain.Permission{"products.*"}, user.Permissions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, rbacDomain.ErrUserNotFound)
	})
}

func TestMySQLUserRepository_UpdateRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = ?, role_level = ?, updated_at = ? WHERE id = ?")).
		WithArgs("VIEWER", int64(1), sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateRole(context.Background(), "u-1", rbacDomain.RoleViewer))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUserRepository_UpdatePermissions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET permissions = ?, updated_at = ? WHERE id = ?")).
		WithArgs([]byte(`["messages.reply"]`), sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePermissions(context.Background(), "u-1", []rbacDomain.Permission{"messages.reply"})
	assert.ErrorIs(t, err, rbacDomain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUserRepository_CountByRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = ?")).
		WithArgs("SUPER_ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountByRole(context.Background(), rbacDomain.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
