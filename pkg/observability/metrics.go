// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the promptstream gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptstream_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds. For streamed
	// completions this covers the whole stream.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptstream_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamingConnections tracks the number of completion streams being written.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "promptstream_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// ProviderRequestsTotal counts completion calls by outcome.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptstream_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records the time from the completion call until the
	// backend reports the stream finished.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptstream_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderFirstToken records the time until the first text delta.
	ProviderFirstToken = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptstream_provider_first_token_seconds",
			Help:    "Time to first token",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderTokensTotal counts tokens processed by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptstream_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// StreamDataPartsTotal counts side-channel data parts written to clients.
	StreamDataPartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promptstream_stream_data_parts_total",
			Help: "Stream data parts written",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		ProviderRequestsTotal,
		ProviderLatency,
		ProviderFirstToken,
		ProviderTokensTotal,
		StreamDataPartsTotal,
	)
}
