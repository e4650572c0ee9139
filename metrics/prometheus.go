// Package metrics exposes prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolpilot_requests_total",
			Help: "Total number of planning requests",
		},
		[]string{"status"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolpilot_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	// Retrieval metrics
	candidatesRetrieved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "toolpilot_candidates_retrieved",
			Help:    "Candidates kept after adaptive filtering, per search",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		},
	)

	rerankFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toolpilot_rerank_fallbacks_total",
			Help: "Total number of reranker fallbacks to input order",
		},
	)

	// Tool metrics
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolpilot_tool_calls_total",
			Help: "Total number of tool calls by outcome",
		},
		[]string{"tool_id", "status"},
	)

	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolpilot_tool_call_duration_seconds",
			Help:    "Tool call duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"tool_id"},
	)
)

// RecordRequest records a finished planning request.
func RecordRequest(status string) {
	requestsTotal.WithLabelValues(status).Inc()
}

// RecordStage records the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordSearch records how many candidates one search returned.
func RecordSearch(kept int) {
	candidatesRetrieved.Observe(float64(kept))
}

// RecordRerankFallback records a reranker falling back to input order.
func RecordRerankFallback() {
	rerankFallbacksTotal.Inc()
}

// RecordToolCall records a tool call
func RecordToolCall(toolID, status string, duration time.Duration) {
	toolCallsTotal.WithLabelValues(toolID, status).Inc()
	toolCallDuration.WithLabelValues(toolID).Observe(duration.Seconds())
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
