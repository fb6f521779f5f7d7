package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dataveil/dataveil/internal/worker"

// Metrics holds instruments for cleanup run monitoring.
type Metrics struct {
	runDuration metric.Float64Histogram
	runTotal    metric.Int64Counter
	softDeleted metric.Int64Counter
	hardDeleted metric.Int64Counter
}

// NewMetrics creates metrics for monitoring cleanup runs.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	runDuration, err := meter.Float64Histogram(
		"cleanup.run.duration",
		metric.WithDescription("Duration of cleanup runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runTotal, err := meter.Int64Counter(
		"cleanup.run.total",
		metric.WithDescription("Total number of cleanup runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	softDeleted, err := meter.Int64Counter(
		"cleanup.records.soft_deleted",
		metric.WithDescription("Number of records marked soft-deleted"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	hardDeleted, err := meter.Int64Counter(
		"cleanup.records.hard_deleted",
		metric.WithDescription("Number of records permanently removed"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runDuration: runDuration,
		runTotal:    runTotal,
		softDeleted: softDeleted,
		hardDeleted: hardDeleted,
	}, nil
}

// RecordRun records metrics for one cleanup pass of one data type.
func (m *Metrics) RecordRun(dataType string, duration time.Duration, softDeleted, hardDeleted int, failed bool) {
	attrs := []attribute.KeyValue{
		attribute.String("data_type", dataType),
	}
	if failed {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Use background context for metrics to avoid context cancellation issues
	ctx := context.TODO()
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.softDeleted.Add(ctx, int64(softDeleted), metric.WithAttributes(attrs...))
	m.hardDeleted.Add(ctx, int64(hardDeleted), metric.WithAttributes(attrs...))
}
