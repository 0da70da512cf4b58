package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of mutation recorded by an audit log entry.
type AuditAction string

const (
	// AuditActionRoleChange records a change of a user's role.
	AuditActionRoleChange AuditAction = "ROLE_CHANGE"

	// AuditActionPermissionChange records a change of a user's permission overrides.
	AuditActionPermissionChange AuditAction = "PERMISSION_CHANGE"
)

// AuditLogEntry is an immutable record of an accepted privilege mutation.
// Entries are appended exactly once and never updated or deleted.
type AuditLogEntry struct {
	ID          uuid.UUID
	ActorID     string
	ActorEmail  string
	TargetID    string
	TargetEmail string
	Action      AuditAction
	OldValue    map[string]any
	NewValue    map[string]any
	Signature   []byte
	IsSigned    bool
	CreatedAt   time.Time
}

// HasValidSignature reports whether the entry carries a complete HMAC-SHA256 signature.
func (a *AuditLogEntry) HasValidSignature() bool {
	return a.IsSigned && len(a.Signature) == 32
}

// IsUnsigned reports whether the entry was written without signing.
func (a *AuditLogEntry) IsUnsigned() bool {
	return !a.IsSigned && a.Signature == nil
}

// NewAuditLogEntry builds an entry for a mutation performed by actor on target.
// The ID is a UUIDv7 and the timestamp is UTC, truncated to the microsecond
// precision both supported databases store.
func NewAuditLogEntry(actor, target *User, action AuditAction, oldValue, newValue map[string]any) *AuditLogEntry {
	return &AuditLogEntry{
		ID:          uuid.Must(uuid.NewV7()),
		ActorID:     actor.ID,
		ActorEmail:  actor.Email,
		TargetID:    target.ID,
		TargetEmail: target.Email,
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}
