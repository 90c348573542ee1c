package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	evaluationsTotal      *prometheus.CounterVec
	evaluationScore       prometheus.Histogram
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	auditStreamClients    prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formguard_evaluations_total",
			Help: "Total number of submission evaluations by verdict.",
		}, []string{"verdict"})

		evaluationScore = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "formguard_evaluation_score",
			Help:    "Distribution of total spam scores per evaluation.",
			Buckets: []float64{0, 5, 10, 15, 20, 30, 45, 60, 90},
		})

		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formguard_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formguard_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"})

		auditStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "formguard_audit_stream_clients",
			Help: "Number of connected audit live-stream clients.",
		})

		prometheus.MustRegister(evaluationsTotal, evaluationScore, requestsTotal, requestLatencySeconds, auditStreamClients)
	})
}

// Evaluations exposes the per-verdict evaluation counter.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationScores exposes the score histogram.
func EvaluationScores() prometheus.Histogram {
	RegisterMetrics()
	return evaluationScore
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// AuditStreamClients exposes the gauge of live audit stream subscribers.
func AuditStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return auditStreamClients
}
