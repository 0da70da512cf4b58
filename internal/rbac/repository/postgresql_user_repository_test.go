package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

func TestPostgreSQLUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("u-1", "u-1@example.com", "Jane", "ADMIN", 2, []byte(`["settings.view"]`), now, now))

		user, err := repo.Get(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "u-1@example.com", user.Email)
		assert.Equal(t, rbacDomain.RoleAdmin, user.Role)
		assert.Equal(t, 2, user.RoleLevel)
		assert.Equal(t, []rbacDomain.Permission{"settings.view"}, user.Permissions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(userColumns))

		user, err := repo.Get(ctx, "missing")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, rbacDomain.ErrUserNotFound)
	})

	t.Run("Error_UnknownRole", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("u-1", "u-1@example.com", "Jane", "OWNER", 9, []byte(`[]`), now, now))

		_, err := repo.Get(ctx, "u-1")
		assert.ErrorIs(t, err, rbacDomain.ErrInvalidRoleValue)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(ctx, "u-1")
		assert.ErrorContains(t, err, "failed to get user")
		assert.NotErrorIs(t, err, rbacDomain.ErrUserNotFound)
	})
}

func TestPostgreSQLUserRepository_UpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecomputesRoleLevel", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $1, role_level = $2, updated_at = $3 WHERE id = $4")).
			WithArgs("SUPER_ADMIN", int64(3), sqlmock.AnyArg(), "u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateRole(ctx, "u-1", rbacDomain.RoleSuperAdmin))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateRole(ctx, "missing", rbacDomain.RoleViewer), rbacDomain.ErrUserNotFound)
	})
}

func TestPostgreSQLUserRepository_UpdatePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET permissions = $1, updated_at = $2 WHERE id = $3")).
			WithArgs([]byte(`["media.upload","products.*"]`), sqlmock.AnyArg(), "u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePermissions(ctx, "u-1", []rbacDomain.Permission{"media.upload", "products.*"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_NilStoredAsEmptyArray", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLUserRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET permissions")).
			WithArgs([]byte(`[]`), sqlmock.AnyArg(), "u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdatePermissions(ctx, "u-1", nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLUserRepository_CountByRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs("ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByRole(context.Background(), rbacDomain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
