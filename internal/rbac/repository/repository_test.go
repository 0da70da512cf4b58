package repository

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

var userColumns = []string{
	"id", "email", "name", "role", "role_level", "permissions", "created_at", "updated_at",
}

var auditLogColumns = []string{
	"id", "actor_id", "actor_email", "target_id", "target_email", "action",
	"old_value", "new_value", "signature", "is_signed", "created_at",
}
