// Package observability provides the Prometheus metrics exposed by the
// proxy on GET /metrics.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts completed /v1/responses requests by model and
	// outcome ("ok", "upstream_error" or "stream_error").
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orsproxy_requests_total",
			Help: "Total /v1/responses requests",
		},
		[]string{"model", "status"},
	)

	// RequestDuration records end-to-end /v1/responses request duration.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orsproxy_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// StreamingConnectionsActive tracks the number of SSE streams currently
	// open to clients. It returns to zero once every open stream has closed.
	StreamingConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orsproxy_streaming_connections_active",
			Help: "Active SSE streaming connections",
		},
	)

	// UpstreamLatency records the time from opening the upstream request to
	// its stream ending, successfully or not.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orsproxy_upstream_latency_seconds",
			Help:    "Upstream Legacy request latency",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnectionsActive,
		UpstreamLatency,
	)
}
