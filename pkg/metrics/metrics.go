package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempoview_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// BridgeInvocations counts command bridge calls by command and outcome (success|failure).
	BridgeInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempoview_bridge_invocations_total",
			Help: "Total number of command bridge invocations",
		},
		[]string{"command", "outcome"},
	)

	// BridgeLatency measures command bridge round-trip time per command.
	BridgeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempoview_bridge_latency_seconds",
			Help:    "Command bridge invocation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// ConnectionTests counts connection test attempts by backend type and result.
	ConnectionTests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempoview_connection_tests_total",
			Help: "Total number of connection tests",
		},
		[]string{"backend", "result"},
	)

	// QueriesBuilt counts queries produced by the query engines per backend and language.
	QueriesBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempoview_queries_built_total",
			Help: "Total number of queries built by the query engines",
		},
		[]string{"backend", "language"},
	)
)
