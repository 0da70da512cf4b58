package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// MockTxManager is a mock implementation of database.TxManager that runs fn inline.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// commitFailingTxManager runs fn inline and then fails the commit with err, the way a
// serializable transaction reports a conflict at commit time.
type commitFailingTxManager struct {
	err error
}

func (m *commitFailingTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.err
}

// mockUserRepository is a mock implementation of UserRepository.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Get(ctx context.Context, id string) (*rbacDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Return a copy so the use case never shares state with the fixture.
	user := *args.Get(0).(*rbacDomain.User)
	return &user, args.Error(1)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id string, role rbacDomain.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePermissions(
	ctx context.Context,
	id string,
	permissions []rbacDomain.Permission,
) error {
	args := m.Called(ctx, id, permissions)
	return args.Error(0)
}

func (m *mockUserRepository) CountByRole(ctx context.Context, role rbacDomain.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

// mockAuditLogRepository is a mock implementation of AuditLogRepository.
type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Append(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditLogRepository) Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.AuditLogEntry), args.Error(1)
}

func (m *mockAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*rbacDomain.AuditLogEntry, error) {
	args := m.Called(ctx, offset, limit, createdAtFrom, createdAtTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rbacDomain.AuditLogEntry), args.Error(1)
}

// mockUserCache is a mock implementation of UserCache.
type mockUserCache struct {
	mock.Mock
}

func (m *mockUserCache) Get(ctx context.Context, id string) (*rbacDomain.User, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*rbacDomain.User), args.Bool(1), args.Error(2)
}

func (m *mockUserCache) Generation(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserCache) Set(ctx context.Context, user *rbacDomain.User, generation int64) error {
	args := m.Called(ctx, user, generation)
	return args.Error(0)
}

func (m *mockUserCache) Invalidate(ctx context.Context, ids ...string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// mockAuditRecorder is a mock implementation of AuditRecorder.
type mockAuditRecorder struct {
	mock.Mock
}

func (m *mockAuditRecorder) RecordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// mockAuditSigner is a mock implementation of service.AuditSigner.
type mockAuditSigner struct {
	mock.Mock
}

func (m *mockAuditSigner) Sign(key []byte, entry *rbacDomain.AuditLogEntry) ([]byte, error) {
	args := m.Called(key, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockAuditSigner) Verify(key []byte, entry *rbacDomain.AuditLogEntry) error {
	args := m.Called(key, entry)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, nil)), buf
}

func newUser(id string, role rbacDomain.Role) *rbacDomain.User {
	return &rbacDomain.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      id,
		Role:      role,
		RoleLevel: role.Level(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}
