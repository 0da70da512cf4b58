package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/roleguard/internal/errors"
	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
	"github.com/allisson/roleguard/internal/rbac/service"
)

// verifyBatchPageSize is the number of entries loaded per page by VerifyBatch.
const verifyBatchPageSize = 1000

// auditLogUseCase implements AuditLogUseCase.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       service.AuditSigner
	signingKey   []byte
}

// NewAuditLogUseCase creates a new AuditLogUseCase. Entries are signed only when both
// signer and signingKey are provided.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer service.AuditSigner,
	signingKey []byte,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo: auditLogRepo,
		signer:       signer,
		signingKey:   signingKey,
	}
}

func (a *auditLogUseCase) signingEnabled() bool {
	return a.signer != nil && len(a.signingKey) > 0
}

// RecordAudit signs and appends entry.
func (a *auditLogUseCase) RecordAudit(ctx context.Context, entry *rbacDomain.AuditLogEntry) error {
	if a.signingEnabled() {
		signature, err := a.signer.Sign(a.signingKey, entry)
		if err != nil {
			return fmt.Errorf("%w: failed to sign audit log: %w", rbacDomain.ErrAuditWriteFailure, err)
		}
		entry.Signature = signature
		entry.IsSigned = true
	}

	if err := a.auditLogRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("%w: %w", rbacDomain.ErrAuditWriteFailure, err)
	}

	return nil
}

// Get returns the entry with id.
func (a *auditLogUseCase) Get(ctx context.Context, id uuid.UUID) (*rbacDomain.AuditLogEntry, error) {
	entry, err := a.auditLogRepo.Get(ctx, id)
	if err != nil {
		if apperrors.Is(err, rbacDomain.ErrAuditLogNotFound) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}
	return entry, nil
}

// List retrieves entries ordered by created_at descending with pagination and optional
// time filtering. Both boundaries are inclusive.
func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*rbacDomain.AuditLogEntry, error) {
	entries, err := a.auditLogRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	return entries, nil
}

// Verify checks the signature of the entry with id. Unsigned entries fail verification.
func (a *auditLogUseCase) Verify(ctx context.Context, id uuid.UUID) error {
	if !a.signingEnabled() {
		return rbacDomain.ErrSigningKeyMissing
	}

	entry, err := a.Get(ctx, id)
	if err != nil {
		return err
	}

	if !entry.IsSigned {
		return apperrors.Wrap(rbacDomain.ErrSignatureInvalid, "audit log is unsigned")
	}

	return a.signer.Verify(a.signingKey, entry)
}

// VerifyBatch pages through every entry in [start, end] and checks signed entries.
// Unsigned entries are counted separately and never fail the report.
func (a *auditLogUseCase) VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error) {
	if !a.signingEnabled() {
		return nil, rbacDomain.ErrSigningKeyMissing
	}

	report := &VerificationReport{InvalidLogs: make([]uuid.UUID, 0)}

	for offset := 0; ; offset += verifyBatchPageSize {
		entries, err := a.auditLogRepo.List(ctx, offset, verifyBatchPageSize, &start, &end)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit logs")
		}

		for _, entry := range entries {
			report.TotalChecked++

			if !entry.IsSigned {
				report.UnsignedCount++
				continue
			}

			report.SignedCount++
			if err := a.signer.Verify(a.signingKey, entry); err != nil {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, entry.ID)
				continue
			}
			report.ValidCount++
		}

		if len(entries) < verifyBatchPageSize {
			break
		}
	}

	return report, nil
}
