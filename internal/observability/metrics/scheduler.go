package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SchedulerMetrics counts backend trigger traffic and reconciliation runs.
// A nil *SchedulerMetrics records nothing.
type SchedulerMetrics struct {
	armed     metric.Int64Counter
	cancelled metric.Int64Counter
	failures  metric.Int64Counter
	runs      metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewSchedulerMetrics(meter metric.Meter) (*SchedulerMetrics, error) {
	armed, err := meter.Int64Counter("medremind.triggers.armed",
		metric.WithDescription("Triggers handed to the notification backend"),
	)
	if err != nil {
		return nil, err
	}

	cancelled, err := meter.Int64Counter("medremind.triggers.cancelled",
		metric.WithDescription("Triggers cancelled in the notification backend"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("medremind.backend.failures",
		metric.WithDescription("Notification backend calls that failed"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("medremind.reconcile.runs",
		metric.WithDescription("Reconciliation passes"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("medremind.reconcile.duration",
		metric.WithDescription("Reconciliation pass duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerMetrics{
		armed:     armed,
		cancelled: cancelled,
		failures:  failures,
		runs:      runs,
		duration:  duration,
	}, nil
}

func (m *SchedulerMetrics) Armed(ctx context.Context, kind string) {
	if m == nil {
		return
	}

	m.armed.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger.kind", kind)))
}

func (m *SchedulerMetrics) Cancelled(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}

	m.cancelled.Add(ctx, int64(n))
}

func (m *SchedulerMetrics) BackendFailure(ctx context.Context, op string) {
	if m == nil {
		return
	}

	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *SchedulerMetrics) ReconcileRun(ctx context.Context, trigger string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.Bool("failed", failed),
	)

	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
