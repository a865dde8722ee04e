// Package telemetry provides OpenTelemetry instrumentation for review sync.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetricsMeterName is the name used for the sync metrics meter.
const SyncMetricsMeterName = "github.com/five82/reviewdeck/sync"

// Outcome labels a completed fetch cycle.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeError     Outcome = "error"
	OutcomeDiscarded Outcome = "discarded" // superseded or arrived after stop
)

// SyncMetrics holds the instruments for fetch cycles.
type SyncMetrics struct {
	cycleDuration metric.Float64Histogram
	cycles        metric.Int64Counter
	reviewsShown  metric.Int64Gauge
}

// NewSyncMetrics creates SyncMetrics with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"reviewdeck_sync_duration_seconds",
		metric.WithDescription("Duration of review fetch cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	cycles, err := meter.Int64Counter(
		"reviewdeck_sync_cycles",
		metric.WithDescription("Completed review fetch cycles by outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	reviewsShown, err := meter.Int64Gauge(
		"reviewdeck_reviews_shown",
		metric.WithDescription("Number of reviews in the current list"),
		metric.WithUnit("{review}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycleDuration: cycleDuration,
		cycles:        cycles,
		reviewsShown:  reviewsShown,
	}, nil
}

// RecordCycle records one completed cycle and its duration.
func (m *SyncMetrics) RecordCycle(ctx context.Context, outcome Outcome, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	m.cycles.Add(ctx, 1, attrs)
	m.cycleDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordReviewsShown records the size of the list after a successful cycle.
func (m *SyncMetrics) RecordReviewsShown(ctx context.Context, count int) {
	if m == nil {
		return
	}
	m.reviewsShown.Record(ctx, int64(count))
}
