// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package metrics provides Prometheus metrics for Haven.

Metrics are registered on the default registry through promauto and exposed
at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP:
  - haven_api_requests_total{method, endpoint, status}
  - haven_api_request_duration_seconds{method, endpoint}
  - haven_api_active_requests

WebSocket and rooms:
  - haven_ws_connections
  - haven_ws_events_received_total{type}
  - haven_ws_errors_total{code}
  - haven_ws_slow_consumers_total
  - haven_room_members{room}
  - haven_messages_broadcast_total{room}
  - haven_fanout_duration_seconds
  - haven_messages_reported_total{room}

Crisis side channel:
  - haven_crisis_matches_total{room}
  - haven_crisis_alerts_total{room}
  - haven_safety_events_total{status}

History store:
  - haven_store_operation_duration_seconds{backend, operation}
  - haven_store_errors_total{backend, operation}
  - haven_persist_queue_depth
  - haven_persist_dropped_total
  - haven_circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - haven_circuit_breaker_transitions_total{name, from, to}

# Privacy

No metric carries a session ID, display name or message content. Room is the
only per-entity label and is bounded by the configured catalog.
*/
package metrics
