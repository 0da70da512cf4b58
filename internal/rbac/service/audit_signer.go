package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
)

type auditSigner struct{}

// NewAuditSigner creates an audit log signer using HKDF-SHA256 for key derivation and
// HMAC-SHA256 for signatures.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

// deriveSigningKey derives a 32-byte signing key from the configured master key.
// The info parameter is versioned so the derivation can change later.
func (a *auditSigner) deriveSigningKey(masterKey []byte) ([]byte, error) {
	if len(masterKey) == 0 {
		return nil, rbacDomain.ErrSigningKeyMissing
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte("rbac-audit-log-signing-v1"))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalizeEntry converts an entry to the byte representation that is signed.
// Format: id || actor_id || actor_email || target_id || target_email || action ||
// old_value || new_value || created_at. Variable-length fields are length-prefixed.
func (a *auditSigner) canonicalizeEntry(entry *rbacDomain.AuditLogEntry) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, entry.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(entry.ActorID))
	buf = appendLengthPrefixed(buf, []byte(entry.ActorEmail))
	buf = appendLengthPrefixed(buf, []byte(entry.TargetID))
	buf = appendLengthPrefixed(buf, []byte(entry.TargetEmail))
	buf = appendLengthPrefixed(buf, []byte(entry.Action))

	// encoding/json sorts map keys, so snapshots serialize deterministically.
	for _, value := range []map[string]any{entry.OldValue, entry.NewValue} {
		if value == nil {
			buf = appendLengthPrefixed(buf, nil)
			continue
		}
		valueBytes, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		buf = appendLengthPrefixed(buf, valueBytes)
	}

	buf = binary.BigEndian.AppendUint64(buf, uint64(entry.CreatedAt.UnixNano()))

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if uint64(len(data)) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Sign returns the 32-byte HMAC-SHA256 signature of entry.
func (a *auditSigner) Sign(masterKey []byte, entry *rbacDomain.AuditLogEntry) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := a.canonicalizeEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize entry: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify returns nil when entry.Signature matches, ErrSignatureInvalid otherwise.
func (a *auditSigner) Verify(masterKey []byte, entry *rbacDomain.AuditLogEntry) error {
	expectedSig, err := a.Sign(masterKey, entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(entry.Signature, expectedSig) {
		return rbacDomain.ErrSignatureInvalid
	}

	return nil
}

// zero overwrites key material in memory.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
