// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the kanzel gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and model.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanzel_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "model"},
	)

	// RequestDuration records HTTP request duration in seconds by method and model.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kanzel_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "model"},
	)

	// LLMRequestsTotal counts requests sent to the chat-completion endpoint.
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanzel_llm_requests_total",
			Help: "LLM endpoint requests",
		},
		[]string{"model", "status"},
	)

	// LLMLatency records chat-completion endpoint latency in seconds.
	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kanzel_llm_latency_seconds",
			Help:    "LLM endpoint latency",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// LLMTokensTotal counts tokens processed by direction (input/output).
	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanzel_llm_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "direction"},
	)

	// UpstreamAttemptsTotal counts fetch attempts against the tool-resource
	// server by outcome classification.
	UpstreamAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanzel_upstream_attempts_total",
			Help: "Upstream fetch attempts",
		},
		[]string{"outcome"},
	)

	// UpstreamRetriesTotal counts retries scheduled by the resilient fetcher.
	UpstreamRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kanzel_upstream_retries_total",
			Help: "Upstream fetch retries",
		},
	)

	// ToolExecutionsTotal counts tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanzel_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	)

	// ToolIterationsPerRequest records how many tool-executing rounds each
	// chat-completion request needed.
	ToolIterationsPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kanzel_tool_iterations_per_request",
			Help:    "Tool-calling iterations per request",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LLMRequestsTotal,
		LLMLatency,
		LLMTokensTotal,
		UpstreamAttemptsTotal,
		UpstreamRetriesTotal,
		ToolExecutionsTotal,
		ToolIterationsPerRequest,
	)
}
