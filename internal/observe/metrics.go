// Package observe provides application-wide observability primitives for
// lyrsync: OpenTelemetry metrics, tracing helpers, and trace-aware structured
// logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all lyrsync metrics.
const meterName = "github.com/karaokeforge/lyrsync"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ReconcileDuration tracks transcript reconciliation latency. Use with
	// attribute: attribute.String("mode", ...)
	ReconcileDuration metric.Float64Histogram

	// LyricsLookupDuration tracks reference-lyric lookup latency.
	LyricsLookupDuration metric.Float64Histogram

	// --- Counters ---

	// Corrections counts applied corrections. Use with attribute:
	//   attribute.String("source", ...)
	Corrections metric.Int64Counter

	// PatternHits counts pattern firings. Use with attribute:
	//   attribute.String("pattern", ...)
	PatternHits metric.Int64Counter

	// LyricsLookups counts lyric lookups. Use with attributes:
	//   attribute.String("status", ...), attribute.String("origin", ...)
	LyricsLookups metric.Int64Counter

	// --- Gauges ---

	// ActiveJobs tracks the number of reconciliation jobs in flight.
	ActiveJobs metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Lookups
// sit in the network range, reconciliation of a full song well below it.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ReconcileDuration, err = m.Float64Histogram("lyrsync.reconcile.duration",
		metric.WithDescription("Latency of transcript reconciliation by mode."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LyricsLookupDuration, err = m.Float64Histogram("lyrsync.lyrics.lookup.duration",
		metric.WithDescription("Latency of reference-lyric lookups."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Corrections, err = m.Int64Counter("lyrsync.corrections",
		metric.WithDescription("Total corrections applied by source."),
	); err != nil {
		return nil, err
	}
	if met.PatternHits, err = m.Int64Counter("lyrsync.pattern.hits",
		metric.WithDescription("Total pattern firings by pattern ID."),
	); err != nil {
		return nil, err
	}
	if met.LyricsLookups, err = m.Int64Counter("lyrsync.lyrics.lookups",
		metric.WithDescription("Total lyric lookups by status and origin."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveJobs, err = m.Int64UpDownCounter("lyrsync.active_jobs",
		metric.WithDescription("Number of reconciliation jobs in flight."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordCorrection records one applied correction by source.
func (m *Metrics) RecordCorrection(ctx context.Context, source string) {
	m.Corrections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordLyricsLookup records one lyric lookup with its status ("hit",
// "miss", "error") and origin ("cache", "remote").
func (m *Metrics) RecordLyricsLookup(ctx context.Context, status, origin string) {
	m.LyricsLookups.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
			attribute.String("origin", origin),
		),
	)
}
