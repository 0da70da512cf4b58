package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/allisson/roleguard/internal/errors"
)

// Bulk target outcomes recorded by RecordBulkTargets.
const (
	BulkUpdated = "updated"
	BulkSkipped = "skipped"
	BulkFailed  = "failed"
)

// BusinessMetrics records RBAC engine operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation. status is "success" or the error category
	// returned by Status (e.g. "forbidden" for a denied check).
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records how long an operation took, in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordBulkTargets counts the targets of a bulk role change by outcome.
	RecordBulkTargets(ctx context.Context, outcome string, count int)
}

type businessMetrics struct {
	operations  metric.Int64Counter
	durations   metric.Float64Histogram
	bulkTargets metric.Int64Counter
}

// NewBusinessMetrics registers the RBAC instruments on meterProvider, prefixing every
// metric name with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		namespace+"_operations_total",
		metric.WithDescription("Total number of RBAC operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		namespace+"_operation_duration_seconds",
		metric.WithDescription("Duration of RBAC operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	bulkTargets, err := meter.Int64Counter(
		namespace+"_bulk_role_change_targets_total",
		metric.WithDescription("Targets processed by bulk role changes by outcome"),
		metric.WithUnit("{target}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk target counter: %w", err)
	}

	return &businessMetrics{
		operations:  operations,
		durations:   durations,
		bulkTargets: bulkTargets,
	}, nil
}

func operationAttributes(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), operationAttributes(domain, operation, status))
}

func (b *businessMetrics) RecordBulkTargets(ctx context.Context, outcome string, count int) {
	if count <= 0 {
		return
	}
	b.bulkTargets.Add(ctx, int64(count), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Status is the status label of an operation result: "success", or the error category
// of err ("forbidden", "not_found", "conflict", "invalid_input", "unavailable", "internal").
func Status(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.Kind(err)
}

// Observe records the count and the duration of an operation that began at start.
func Observe(ctx context.Context, m BusinessMetrics, domain, operation string, start time.Time, err error) {
	status := Status(err)
	m.RecordOperation(ctx, domain, operation, status)
	m.RecordDuration(ctx, domain, operation, time.Since(start), status)
}

// NoOpBusinessMetrics discards everything. It is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics returns a BusinessMetrics that records nothing.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return NoOpBusinessMetrics{}
}

func (NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func (NoOpBusinessMetrics) RecordBulkTargets(context.Context, string, int) {}
