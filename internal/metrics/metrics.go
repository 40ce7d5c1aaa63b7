// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels never carry session IDs, display names or message content. The
// only high-cardinality-looking label is room, which is bounded by the
// configured catalog.

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haven_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_api_active_requests",
			Help: "Number of HTTP API requests currently being served",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_ws_connections",
			Help: "Current number of open WebSocket connections",
		},
	)

	WSEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_ws_events_received_total",
			Help: "Total number of client events received, by event type",
		},
		[]string{"type"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_ws_errors_total",
			Help: "Total number of error events sent to clients, by code",
		},
		[]string{"code"},
	)

	WSSlowConsumers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "haven_ws_slow_consumers_total",
			Help: "Connections closed because their outbound queue was full",
		},
	)

	// Room Metrics
	RoomMembers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "haven_room_members",
			Help: "Current member count per room",
		},
		[]string{"room"},
	)

	MessagesBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_messages_broadcast_total",
			Help: "Total number of chat messages fanned out, per room",
		},
		[]string{"room"},
	)

	FanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "haven_fanout_duration_seconds",
			Help:    "Time spent enqueuing one envelope to every member of a room",
			Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05},
		},
	)

	MessagesReported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_messages_reported_total",
			Help: "Total number of report-message signals, per room",
		},
		[]string{"room"},
	)

	// Crisis Metrics
	CrisisMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_crisis_matches_total",
			Help: "Messages that matched a crisis phrase, per room",
		},
		[]string{"room"},
	)

	CrisisAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_crisis_alerts_total",
			Help: "crisis-resources broadcasts sent, per room",
		},
		[]string{"room"},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haven_store_operation_duration_seconds",
			Help:    "Duration of history store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_store_errors_total",
			Help: "Total number of failed history store operations",
		},
		[]string{"backend", "operation"},
	)

	PersistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "haven_persist_queue_depth",
			Help: "Messages waiting to be written to the history store",
		},
	)

	PersistDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "haven_persist_dropped_total",
			Help: "Messages not persisted because the queue was full",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "haven_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Safety Event Metrics
	SafetyEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haven_safety_events_total",
			Help: "Safety events handed to the publisher, by outcome",
		},
		[]string{"status"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "haven_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation records the duration and outcome of a store call.
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}

// SetRoomMembers publishes a room's member count.
func SetRoomMembers(room string, count int) {
	RoomMembers.WithLabelValues(room).Set(float64(count))
}

// RecordCircuitBreakerTransition records a breaker state change. State
// names follow gobreaker: "closed", "half-open", "open".
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordSafetyEvent records a safety event publish outcome.
func RecordSafetyEvent(err error) {
	if err != nil {
		SafetyEventsPublished.WithLabelValues("failed").Inc()
		return
	}
	SafetyEventsPublished.WithLabelValues("published").Inc()
}
