// Package metrics provides Prometheus metrics export for the matching core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter holds the Prometheus collectors for the service.
type Exporter struct {
	registry *prometheus.Registry

	itemsReported      *prometheus.CounterVec
	matchesComputed    prometheus.Counter
	matchesSuggested   prometheus.Counter
	claimConflicts     prometheus.Counter
	extractionFailures *prometheus.CounterVec
	scanDuration       prometheus.Histogram
}

// New creates an Exporter with its own registry.
func New() *Exporter {
	registry := prometheus.NewRegistry()
	e := &Exporter{
		registry: registry,
		itemsReported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beartracks",
			Name:      "items_reported_total",
			Help:      "Number of reported items by kind (lost, found).",
		}, []string{"kind"}),
		matchesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beartracks",
			Name:      "matches_computed_total",
			Help:      "Number of candidate pairs scored.",
		}),
		matchesSuggested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beartracks",
			Name:      "matches_suggested_total",
			Help:      "Number of matches above the auto-suggest threshold.",
		}),
		claimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beartracks",
			Name:      "claim_conflicts_total",
			Help:      "Number of claim requests rejected because the item was already held.",
		}),
		extractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beartracks",
			Name:      "extraction_failures_total",
			Help:      "Number of embedding/photo extraction failures by source.",
		}, []string{"source"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "beartracks",
			Name:      "match_scan_duration_seconds",
			Help:      "Duration of a full candidate scan for one item.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
	}

	registry.MustRegister(
		e.itemsReported,
		e.matchesComputed,
		e.matchesSuggested,
		e.claimConflicts,
		e.extractionFailures,
		e.scanDuration,
	)
	return e
}

func (e *Exporter) ItemReported(kind string) { e.itemsReported.WithLabelValues(kind).Inc() }
func (e *Exporter) MatchesComputed(n int)    { e.matchesComputed.Add(float64(n)) }
func (e *Exporter) MatchSuggested()          { e.matchesSuggested.Inc() }
func (e *Exporter) ClaimConflict()           { e.claimConflicts.Inc() }
func (e *Exporter) ExtractionFailure(source string) {
	e.extractionFailures.WithLabelValues(source).Inc()
}
func (e *Exporter) ObserveScan(d time.Duration) { e.scanDuration.Observe(d.Seconds()) }

// Handler returns the /metrics HTTP handler for this exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
