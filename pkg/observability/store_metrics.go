package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StoreMetrics records every state write: count by outcome and latency,
// which includes time spent waiting on the distributed writer lock.
type StoreMetrics struct {
	writes   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewStoreMetrics registers instruments on meter, or on the global meter
// provider when meter is nil.
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	if meter == nil {
		meter = otel.Meter(tracerName)
	}

	writes, err := meter.Int64Counter(
		"store_write_count",
		metric.WithDescription("Total number of state writes"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"store_write_duration_ms",
		metric.WithDescription("State write duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &StoreMetrics{writes: writes, duration: duration}, nil
}

func (m *StoreMetrics) ObserveWrite(ctx context.Context, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	m.writes.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(took.Microseconds())/1000, attrs)
}
