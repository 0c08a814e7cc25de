package harvest

import (
	"time"

	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/importer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the harvest Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	passes        *prometheus.CounterVec
	staged        *prometheus.CounterVec
	resolved      *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

// NewMetrics registers the harvest collectors on registerer
// (the default registerer when nil).
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		passes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_passes_total",
				Help: "Total number of harvest passes by final job status",
			},
			[]string{"status"},
		),
		staged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_objects_staged_total",
				Help: "Total number of staging records written by classification",
			},
			[]string{"classification"},
		),
		resolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_objects_resolved_total",
				Help: "Total number of staging records processed by the importer by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_fetch_duration_seconds",
				Help:    "Duration of remote catalog requests in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
	}
}

// ObserveFetch records the duration of one catalog request.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordPass counts a finished pass.
func (m *Metrics) RecordPass(status string) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(status).Inc()
}

// RecordStaged counts a staging record.
func (m *Metrics) RecordStaged(c reconcile.Classification) {
	if m == nil {
		return
	}
	m.staged.WithLabelValues(string(c)).Inc()
}

// RecordResolved counts an importer outcome.
func (m *Metrics) RecordResolved(o importer.Outcome) {
	if m == nil {
		return
	}
	m.resolved.WithLabelValues(string(o)).Inc()
}
