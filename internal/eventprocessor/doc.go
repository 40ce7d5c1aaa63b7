// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

// Package eventprocessor publishes safety events to NATS so an operator's
// on-call tooling can notice crisis activity without reading chat.
//
// # Events
//
// A SafetyEvent is emitted when a room is shown crisis resources. It names
// the room, the flagged message ID and the time. It never carries message
// content, display names or session IDs:
//
//	{
//	  "event_id": "2b0c...",
//	  "kind": "crisis_detected",
//	  "room": "veterans",
//	  "message_id": "1767225600123-9f2c4e1a",
//	  "timestamp": "2026-05-01T12:00:00Z",
//	  "resources_shown": 3
//	}
//
// Events are published on core NATS (no JetStream) to
//
//	<subject_prefix>.safety.<room>
//
// # Components
//
//   - Publisher: Watermill NATS publisher guarded by a gobreaker circuit
//     breaker. Publish failures are logged and counted by the caller; chat
//     delivery never depends on them.
//   - NoopPublisher: used when NATS is disabled.
//   - EmbeddedServer: in-process nats-server for single-node deployments.
//
// # Configuration
//
//	NATS_ENABLED=true
//	NATS_EMBEDDED=true         # start an in-process server
//	NATS_URL=nats://host:4222  # used when NATS_EMBEDDED=false
//	NATS_SUBJECT_PREFIX=haven
package eventprocessor
