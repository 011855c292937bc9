// Package metrics defines the Prometheus instruments shared across the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	// IngestRequestsTotal tracks ingestion requests by endpoint and outcome
	IngestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Total ingestion requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)

// Gateway metrics
var (
	// GatewayConnectedClients tracks currently connected dashboard clients
	GatewayConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_connected_clients",
			Help: "Currently connected WebSocket clients",
		},
	)

	// GatewayBroadcastsTotal tracks broadcasts by channel
	GatewayBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_broadcasts_total",
			Help: "Total events broadcast by channel",
		},
		[]string{"channel"},
	)

	// GatewaySlowClientsEvicted tracks clients dropped for full send buffers
	GatewaySlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_slow_clients_evicted_total",
			Help: "Clients evicted because their send buffer was full",
		},
	)

	// GatewayInboundMessagesTotal tracks inbound WebSocket messages by event name
	GatewayInboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_inbound_messages_total",
			Help: "Inbound WebSocket messages by event name",
		},
		[]string{"event"},
	)

	// GatewayStopTimeoutsTotal tracks forced shutdowns of the gateway actor
	GatewayStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_stop_timeouts_total",
			Help: "Gateway shutdowns that exceeded the stop timeout",
		},
	)
)

// WebSocket writer metrics
var (
	// WebSocketMessageSendDuration tracks per-message write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total failed WebSocket keepalive pings",
		},
	)
)

// Gemini collaborator metrics
var (
	// GeminiRequestsTotal tracks model calls by task and outcome (ok/fallback)
	GeminiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_requests_total",
			Help: "Total Gemini requests by task and status",
		},
		[]string{"task", "status"},
	)

	// GeminiRequestDuration tracks model call latency by task
	GeminiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_request_duration_seconds",
			Help:    "Gemini request duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"task"},
	)

	// GeminiCircuitState tracks the collaborator circuit breaker state
	// (0=closed, 1=half-open, 2=open)
	GeminiCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gemini_circuit_breaker_state",
			Help: "Gemini circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)
