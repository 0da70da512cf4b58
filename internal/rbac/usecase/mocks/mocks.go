// Package mocks provides mock implementations of the RBAC use cases for testing commands.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
	rbacUseCase "github.com/allisson/roleguard/internal/rbac/usecase"
)

// MockAuthorizationUseCase is a mock implementation of AuthorizationUseCase.
type MockAuthorizationUseCase struct {
	mock.Mock
}

// Authorize mocks the Authorize method.
func (m *MockAuthorizationUseCase) Authorize(ctx context.Context, userID, permission string) error {
	args := m.Called(ctx, userID, permission)
	return args.Error(0)
}

// GetUser mocks the GetUser method.
func (m *MockAuthorizationUseCase) GetUser(ctx context.Context, userID string) (*rbacDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.User), args.Error(1)
}

// ValidateRoleChange mocks the ValidateRoleChange method.
func (m *MockAuthorizationUseCase) ValidateRoleChange(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) error {
	args := m.Called(ctx, actor, targetID, newRole)
	return args.Error(0)
}

// ApplyRoleChange mocks the ApplyRoleChange method.
func (m *MockAuthorizationUseCase) ApplyRoleChange(
	ctx context.Context,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	args := m.Called(ctx, targetID, newRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.User), args.Error(1)
}

// ChangeRole mocks the ChangeRole method.
func (m *MockAuthorizationUseCase) ChangeRole(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	newRole rbacDomain.Role,
) (*rbacDomain.User, error) {
	args := m.Called(ctx, actor, targetID, newRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.User), args.Error(1)
}

// BulkChangeRole mocks the BulkChangeRole method.
func (m *MockAuthorizationUseCase) BulkChangeRole(
	ctx context.Context,
	actor *rbacDomain.User,
	targetIDs []string,
	newRole rbacDomain.Role,
) (*rbacDomain.BulkResult, error) {
	args := m.Called(ctx, actor, targetIDs, newRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.BulkResult), args.Error(1)
}

// UpdatePermissions mocks the UpdatePermissions method.
func (m *MockAuthorizationUseCase) UpdatePermissions(
	ctx context.Context,
	actor *rbacDomain.User,
	targetID string,
	permissions []string,
) (*rbacDomain.User, error) {
	args := m.Called(ctx, actor, targetID, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.User), args.Error(1)
}

// MockAuditLogUseCase is a mock implementation of AuditLogUseCase.
type MockAuditLogUseCase struct {
	mock.Mock
}

// RecordAudit mocks the RecordAudit method.
func (m *MockAuditLogUseCase) RecordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockAuditLogUseCase) Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacDomain.AuditLogEntry), args.Error(1)
}

// List mocks the List method.
func (m *MockAuditLogUseCase) List(
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

// Verify mocks the Verify method.
func (m *MockAuditLogUseCase) Verify(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// VerifyBatch mocks the VerifyBatch method.
func (m *MockAuditLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*rbacUseCase.VerificationReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rbacUseCase.VerificationReport), args.Error(1)
}
