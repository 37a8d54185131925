// Package telemetry wraps the two ambient observability concerns every
// Sheet carries regardless of which features are in scope: structured
// logging via log/slog (the logging idiom used throughout the pack, e.g.
// roach88-nysm's cli/run.go) and metrics via prometheus/client_golang
// (jinterlante1206-AleutianLocal's pattern), with metric registration
// optional so the engine core never requires a live registry in tests.
package telemetry

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instrumentation. The Metrics
// returned by NewMetrics(nil) has fully usable but unregistered
// collectors: incrementing them is always safe, they simply never surface
// through a scrape endpoint. A zero-value Metrics has nil collectors.
type Metrics struct {
	RecalcTotal        prometheus.Counter
	RecalcAffectedSize prometheus.Histogram
	SpliceDuration     prometheus.Histogram
	CycleDetectedTotal prometheus.Counter
}

// NewMetrics builds the engine's counters/histograms and, if reg is
// non-nil, registers them against it. Passing nil is the "no-op" case
// spec.md's ambient stack calls for: the returned Metrics is fully
// functional, just unobserved.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RecalcTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheetcore_recalc_total",
			Help: "Total number of recalculation passes triggered by a cell write or splice.",
		}),
		RecalcAffectedSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sheetcore_recalc_affected_size",
			Help:    "Number of formula cells visited by a single recalculation pass.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		SpliceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sheetcore_splice_duration_seconds",
			Help:    "Wall-clock time spent applying a row/column insert or delete.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		CycleDetectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheetcore_cycle_detected_total",
			Help: "Total number of writes rejected because they would introduce a dependency cycle.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RecalcTotal, m.RecalcAffectedSize, m.SpliceDuration, m.CycleDetectedTotal)
	}
	return m
}

// Logger is a thin alias so callers importing this package don't also need
// to import log/slog directly for the common case.
type Logger = slog.Logger

// NewLogger returns l if non-nil, otherwise slog's current default logger
// — the same "accept an injected logger, fall back to package default"
// pattern roach88-nysm's run.go uses around slog.SetDefault.
func NewLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
