package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The default registry already carries the Go and process collectors.
func init() {
	prometheus.MustRegister(collectors.NewBuildInfoCollector())
}

// Analysis Metrics
var (
	// ClassificationsTotal tracks analyzed messages by the route that answered them
	// (cache_hit, oracle, fallback)
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_classifications_total",
			Help: "Analyzed messages by answering route",
		},
		[]string{"route"},
	)

	// RateLimitedTotal tracks requests rejected by the per-user cooldown
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodpulse_rate_limited_total",
			Help: "Requests rejected by the per-user cooldown",
		},
	)

	// CommandsTotal tracks bot commands by name
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_commands_total",
			Help: "Bot commands handled by name",
		},
		[]string{"command"},
	)
)

// Feedback Metrics
var (
	// VotesTotal tracks recorded votes by kind (confirm, correct)
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_votes_total",
			Help: "Recorded votes by kind",
		},
		[]string{"kind"},
	)

	// CallbacksTotal tracks inline button presses by kind and outcome
	CallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_callbacks_total",
			Help: "Inline button presses by kind and result",
		},
		[]string{"kind", "result"},
	)

	// LedgerTexts tracks how many distinct texts have at least one vote
	LedgerTexts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodpulse_ledger_texts",
			Help: "Distinct normalized texts with at least one vote",
		},
	)
)

// Oracle Metrics
var (
	// OracleRequestDuration tracks classification oracle latency in seconds
	OracleRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodpulse_oracle_request_duration_seconds",
			Help:    "Classification oracle request duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 3, 5},
		},
	)

	// OracleFailuresTotal tracks oracle failures by reason
	OracleFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_oracle_failures_total",
			Help: "Classification oracle failures by reason",
		},
		[]string{"reason"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Transport Metrics
var (
	// TransportErrorsTotal tracks failed chat transport operations
	TransportErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_transport_errors_total",
			Help: "Failed chat transport operations by operation",
		},
		[]string{"operation"},
	)

	// UpdatesTotal tracks inbound chat updates by type
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_updates_total",
			Help: "Inbound chat updates by type",
		},
		[]string{"type"},
	)
)

// Persistence Metrics
var (
	// SnapshotSavesTotal tracks snapshot writes by result (success, error)
	SnapshotSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_snapshot_saves_total",
			Help: "Snapshot writes by result",
		},
		[]string{"result"},
	)

	// SnapshotSaveDuration tracks how long a full snapshot write takes
	SnapshotSaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodpulse_snapshot_save_duration_seconds",
			Help:    "Snapshot write duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SnapshotBytes tracks the size of the last written snapshot
	SnapshotBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodpulse_snapshot_bytes",
			Help: "Size of the last written snapshot in bytes",
		},
	)
)

// Redis Metrics
var (
	// RedisOpsTotal tracks Redis operations by operation and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed connection attempts
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Failed Redis connection attempts",
		},
	)
)

// HTTP Metrics
var (
	// HTTPRequestsTotal tracks ops API requests by method, route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodpulse_http_requests_total",
			Help: "Ops API requests by method, route and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks ops API latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodpulse_http_request_duration_seconds",
			Help:    "Ops API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)
)
