package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	staleTotal      *prometheus.CounterVec
	analysesTotal   *prometheus.CounterVec
	anomaliesFound  *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	subscribers     prometheus.Gauge
}

// New registers the recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		upstreamTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlescope_upstream_requests_total",
				Help: "Requests sent to the analysis service",
			},
			[]string{"endpoint", "result"},
		),
		upstreamLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlescope_upstream_request_seconds",
				Help:    "Latency of analysis service requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),
		staleTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlescope_stale_results_total",
				Help: "Completed requests discarded because a newer one was issued",
			},
			[]string{"kind"},
		),
		analysesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlescope_analyses_total",
				Help: "Anomaly analyses by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		anomaliesFound: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlescope_anomalies_per_analysis",
				Help:    "Number of anomalies returned per successful analysis",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"method"},
		),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "candlescope_sessions_active",
			Help: "Dashboard sessions currently held in memory",
		}),
		subscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "candlescope_ws_subscribers",
			Help: "Open websocket subscriptions",
		}),
	}
}

// RecordUpstream records one analysis service call.
func (r *Recorder) RecordUpstream(endpoint, result string, seconds float64) {
	r.upstreamTotal.WithLabelValues(endpoint, result).Inc()
	r.upstreamLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordStale records a result dropped by the request token check.
func (r *Recorder) RecordStale(kind string) {
	r.staleTotal.WithLabelValues(kind).Inc()
}

// RecordAnalysis records an applied analysis outcome.
func (r *Recorder) RecordAnalysis(method, outcome string, anomalies int) {
	r.analysesTotal.WithLabelValues(method, outcome).Inc()
	if outcome != "error" {
		r.anomaliesFound.WithLabelValues(method).Observe(float64(anomalies))
	}
}

// SetActiveSessions sets the live session gauge.
func (r *Recorder) SetActiveSessions(n int) {
	r.sessionsActive.Set(float64(n))
}

// AddSubscribers moves the websocket subscriber gauge by delta.
func (r *Recorder) AddSubscribers(delta int) {
	r.subscribers.Add(float64(delta))
}
