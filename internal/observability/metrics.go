package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis operations across cache, rate
	// limiting, and pub/sub, labeled by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codefolio_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codefolio_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// VoteTransitions counts ledger state transitions, labeled by the
	// previous and new state ("none", "up", "down").
	VoteTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codefolio_vote_transitions_total",
		Help: "Total vote ledger transitions by previous and new state",
	}, []string{"from", "to"})

	// NotificationsCreated counts notification fan-out by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codefolio_notifications_created_total",
		Help: "Total notifications created by type",
	}, []string{"type"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codefolio_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codefolio_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
