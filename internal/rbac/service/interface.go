// Package service provides stateless RBAC services: the role-change guard pipeline,
// audit log signing, and signing key loading.
package service

import (
	"context"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

// RoleGuard decides whether a role transition is allowed. Implementations are pure:
// they perform no I/O and never mutate their inputs.
type RoleGuard interface {
	// Evaluate runs every guard in order and returns the first rejection, or nil.
	Evaluate(transition Transition) error

	// CountedRole returns the role whose holder count guard evaluation needs for a move
	// from current to requested, and false when no count is needed.
	CountedRole(current, requested rbacDomain.Role) (rbacDomain.Role, bool)
}

// AuditSigner signs audit log entries and verifies their signatures.
type AuditSigner interface {
	// Sign returns the HMAC-SHA256 signature of entry under a key derived from key.
	Sign(key []byte, entry *rbacDomain.AuditLogEntry) ([]byte, error)

	// Verify returns ErrSignatureInvalid when entry.Signature does not match.
	Verify(key []byte, entry *rbacDomain.AuditLogEntry) error
}

// Keeper decrypts key material held by a KMS.
type Keeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperOpener opens a Keeper for a KMS key URI.
type KeeperOpener interface {
	OpenKeeper(ctx context.Context, keyURI string) (Keeper, error)
}
