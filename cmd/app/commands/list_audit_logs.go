package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	rbacDomain "github.com/allisson/roleguard/internal/rbac/domain"
	rbacUseCase "github.com/allisson/roleguard/internal/rbac/usecase"
)

// maxListLimit caps the page size accepted by list-audit-logs.
const maxListLimit = 1000

// RunListAuditLogs prints one page of audit logs, newest first. startDate and endDate are
// optional and bound the creation time when set.
func RunListAuditLogs(
	ctx context.Context,
	auditLogUseCase rbacUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	offset, limit int,
	startDate, endDate string,
	format string,
) error {
	if offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if limit < 1 || limit > maxListLimit {
		return fmt.Errorf("limit must be between 1 and %d", maxListLimit)
	}

	from, err := parseOptionalDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	to, err := parseOptionalDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if from != nil && to != nil && !to.After(*from) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Debug("listing audit logs", slog.Int("offset", offset), slog.Int("limit", limit))

	entries, err := auditLogUseCase.List(ctx, offset, limit, from, to)
	if err != nil {
		return fmt.Errorf("failed to list audit logs: %w", err)
	}

	if format == "json" {
		output := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			output = append(output, auditLogOutput(entry))
		}
		return writeJSON(writer, output)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(writer, "No audit logs found")
		return nil
	}

	for _, entry := range entries {
		signed := "no"
		if entry.IsSigned {
			signed = "yes"
		}
		_, _ = fmt.Fprintf(writer, "%s  %s  %-17s  %s -> %s  signed=%s\n",
			entry.ID,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Action,
			entry.ActorEmail,
			entry.TargetEmail,
			signed,
		)
	}
	return nil
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func auditLogOutput(entry *rbacDomain.AuditLogEntry) map[string]any {
	return map[string]any{
		"id":           entry.ID.String(),
		"actor_id":     entry.ActorID,
		"actor_email":  entry.ActorEmail,
		"target_id":    entry.TargetID,
		"target_email": entry.TargetEmail,
		"action":       string(entry.Action),
		"old_value":    entry.OldValue,
		"new_value":    entry.NewValue,
		"is_signed":    entry.IsSigned,
		"created_at":   entry.CreatedAt.Format(time.RFC3339Nano),
	}
}
