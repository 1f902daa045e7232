// Package metrics exposes Prometheus metrics for report runs and upstream fetches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fedreturn"

// Run outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeNoData     = "no_data"
	OutcomeFetchError = "fetch_error"
	OutcomeError      = "error"
)

// Recorder records run and fetch outcomes.
type Recorder interface {
	ObserveRun(district, outcome string, elapsed time.Duration)
	ObserveFetch(result string, elapsed time.Duration)
}

// Manager is a Recorder backed by its own Prometheus registry.
type Manager struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// NewManager registers the metrics on a fresh registry.
func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Manager{
		registry: reg,
		runs: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_runs_total",
			Help:      "Report runs by district and outcome.",
		}, []string{"district", "outcome"}),
		runDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_run_duration_seconds",
			Help:      "Wall time of a full fetch, join, and compute cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		fetches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "spending",
			Name:      "fetches_total",
			Help:      "Upstream spending fetches by result (ok or error kind).",
		}, []string{"result"}),
		fetchDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "spending",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream spending fetch latency including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveRun implements Recorder.
func (m *Manager) ObserveRun(district, outcome string, elapsed time.Duration) {
	m.runs.WithLabelValues(district, outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// ObserveFetch implements Recorder.
func (m *Manager) ObserveFetch(result string, elapsed time.Duration) {
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Nop discards all observations.
type Nop struct{}

func (Nop) ObserveRun(string, string, time.Duration) {}
func (Nop) ObserveFetch(string, time.Duration)       {}
