package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pairline_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pairline_active_connections",
			Help: "Number of active connections",
		},
	)

	// PairingAttempts tracks pairing attempts by outcome
	PairingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairline_pairing_attempts_total",
			Help: "Number of pairing attempts by outcome",
		},
		[]string{"result"},
	)

	// ParseFailures tracks speech parse failures by parser
	ParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairline_parse_failures_total",
			Help: "Number of speech transcripts that failed to parse",
		},
		[]string{"parser"},
	)

	// Lockouts tracks caller lockouts
	Lockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairline_lockouts_total",
			Help: "Number of caller lockouts triggered",
		},
	)

	// BroadcastFailures tracks best-effort broadcast publish failures
	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairline_broadcast_failures_total",
			Help: "Number of event broadcasts that failed to publish",
		},
	)

	// Callbacks tracks outbound callback legs by status
	Callbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairline_callbacks_total",
			Help: "Number of outbound callback legs by status",
		},
		[]string{"status"},
	)

	// SessionsSwept tracks sessions expired by the sweep
	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pairline_sessions_swept_total",
			Help: "Number of sessions transitioned to expired by the sweep",
		},
	)
)
