package telemetry

import (
	"net/http"

	"github.com/petal-labs/swipe/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records attempt counts, latency and backoff as Prometheus series.
type Metrics struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	backoff  *prometheus.CounterVec
	requests *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// NewMetrics registers the swipe collectors on reg, which Handler also
// serves. A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipe_attempts_total",
				Help: "Total number of network attempts by outcome kind",
			},
			[]string{"operation", "kind"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swipe_attempt_duration_seconds",
				Help:    "Network attempt latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		backoff: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipe_backoff_seconds_total",
				Help: "Total time scheduled for backoff waits",
			},
			[]string{"operation"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipe_requests_total",
				Help: "Total number of logical requests by final outcome kind",
			},
			[]string{"operation", "kind"},
		),
		gatherer: reg,
	}
}

// OnAttempt implements core.TelemetryHook.
func (m *Metrics) OnAttempt(e core.AttemptEvent) {
	m.attempts.WithLabelValues(e.Operation, e.Kind.String()).Inc()
	m.latency.WithLabelValues(e.Operation).Observe(e.Elapsed.Seconds())
	if e.Wait > 0 {
		m.backoff.WithLabelValues(e.Operation).Add(e.Wait.Seconds())
	}
	if e.Final {
		m.requests.WithLabelValues(e.Operation, e.Kind.String()).Inc()
	}
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
