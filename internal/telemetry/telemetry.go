package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finmetrics/internal/metrics"
)

// Fetch outcomes used as label values.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeUnreachable = "unreachable"
	OutcomeError       = "error"
)

// Recorder records fetch metrics into its own registry.
type Recorder struct {
	reg *prometheus.Registry

	fetches  *prometheus.CounterVec
	missing  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// New creates a recorder. With withRuntime the Go and process collectors are
// registered as well.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmetrics_fetches_total",
				Help: "Total number of provider fetches by outcome",
			},
			[]string{"provider", "outcome"},
		),
		missing: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmetrics_missing_values_total",
				Help: "Canonical metrics resolved to N/A on successful fetches",
			},
			[]string{"provider", "key"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finmetrics_fetch_duration_seconds",
				Help:    "Duration of provider fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		inflight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finmetrics_fetches_in_flight",
				Help: "Provider fetches currently running",
			},
			[]string{"provider"},
		),
	}
}

// RecordFetch records one completed fetch.
func (r *Recorder) RecordFetch(provider, outcome string, seconds float64) {
	r.fetches.WithLabelValues(provider, outcome).Inc()
	r.latency.WithLabelValues(provider).Observe(seconds)
}

// RecordMissing records a canonical key that resolved to N/A.
func (r *Recorder) RecordMissing(provider string, key metrics.Key) {
	r.missing.WithLabelValues(provider, string(key)).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
