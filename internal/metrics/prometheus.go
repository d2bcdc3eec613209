/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Prometheus metrics for NeuronChat
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Request metrics */
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_chat_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	/* Turn metrics */
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_turns_total",
			Help: "Total number of processed conversation turns",
		},
		[]string{"status"},
	)

	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_chat_turn_duration_seconds",
			Help:    "Turn processing duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"action"},
	)

	/* Routing metrics */
	routingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_routing_decisions_total",
			Help: "Total number of routing decisions by action",
		},
		[]string{"action"},
	)

	classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_classifications_total",
			Help: "Total number of classifier outcomes",
		},
		[]string{"classifier", "outcome"},
	)

	/* Workflow metrics */
	workflowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_workflow_transitions_total",
			Help: "Total number of workflow step transitions",
		},
		[]string{"workflow", "outcome"},
	)

	workflowCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_workflow_completions_total",
			Help: "Total number of workflow completions and cancellations",
		},
		[]string{"workflow", "status"},
	)

	/* LLM classifier metrics */
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_llm_calls_total",
			Help: "Total number of LLM classifier calls",
		},
		[]string{"purpose", "status"},
	)

	llmCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurondb_chat_llm_call_duration_seconds",
			Help:    "LLM classifier call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"purpose"},
	)

	/* Federation metrics */
	nodeForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurondb_chat_node_forwards_total",
			Help: "Total number of turns forwarded to remote nodes",
		},
		[]string{"node", "status"},
	)

	/* Session metrics */
	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "neurondb_chat_sessions_active",
			Help: "Number of sessions currently cached in memory",
		},
	)

	sessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neurondb_chat_sessions_expired_total",
			Help: "Total number of sessions removed by the cleanup service",
		},
	)
)

/* RecordHTTPRequest records an HTTP request */
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

/* RecordTurn records a processed turn */
func RecordTurn(action, status string, duration time.Duration) {
	turnsTotal.WithLabelValues(status).Inc()
	turnDuration.WithLabelValues(action).Observe(duration.Seconds())
}

/* RecordRoutingDecision records a routing decision */
func RecordRoutingDecision(action string) {
	routingDecisionsTotal.WithLabelValues(action).Inc()
}

/* RecordClassification records a classifier outcome */
func RecordClassification(classifier, outcome string) {
	classificationsTotal.WithLabelValues(classifier, outcome).Inc()
}

/* RecordWorkflowTransition records a workflow step transition */
func RecordWorkflowTransition(workflow, outcome string) {
	workflowTransitionsTotal.WithLabelValues(workflow, outcome).Inc()
}

/* RecordWorkflowCompletion records a workflow completion or cancellation */
func RecordWorkflowCompletion(workflow, status string) {
	workflowCompletionsTotal.WithLabelValues(workflow, status).Inc()
}

/* RecordLLMCall records an LLM classifier call */
func RecordLLMCall(purpose, status string, duration time.Duration) {
	llmCallsTotal.WithLabelValues(purpose, status).Inc()
	llmCallDuration.WithLabelValues(purpose).Observe(duration.Seconds())
}

/* RecordNodeForward records a forwarded turn */
func RecordNodeForward(node, status string) {
	nodeForwardsTotal.WithLabelValues(node, status).Inc()
}

/* SetActiveSessions sets the active session gauge */
func SetActiveSessions(n int) {
	sessionsActive.Set(float64(n))
}

/* RecordSessionsExpired records sessions removed by cleanup */
func RecordSessionsExpired(n int) {
	sessionsExpiredTotal.Add(float64(n))
}

/* Handler returns the prometheus metrics HTTP handler */
func Handler() http.Handler {
	return promhttp.Handler()
}
