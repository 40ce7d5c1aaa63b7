// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package main is the entry point for the Haven chat server.

Haven hosts anonymous, topic-based chat rooms for service members, veterans
and their families. Participants join with a client-generated anonymous
session ID and a display name; messages fan out in real time over
WebSocket, are kept best-effort in a history store, and are screened for
crisis phrases that trigger a rate-limited side channel of support
resources.

# Commands

	haven [serve]     run the server (default)
	haven config      print the effective configuration as YAML
	haven rooms       print the room catalog
	haven version     print the build version

All commands accept --config to point at a YAML file; otherwise CONFIG_PATH
and the default search paths are used, then environment variables override.

# Supervision

	RootSupervisor ("haven")
	├── data-layer
	│   └── history-persister
	├── messaging-layer
	│   ├── websocket-hub
	│   └── nats-server (nats.enabled and nats.embedded)
	└── api-layer
	    └── http-server

Initialization order:

 1. Configuration (koanf) and logging (zerolog)
 2. History store with circuit breaker, and the write-behind persister
 3. Crisis side channel
 4. Safety event publisher (NATS via watermill, optional)
 5. Room registry, broadcaster and WebSocket hub
 6. Chi router and HTTP server
 7. Supervisor tree

# Environment

	HTTP_PORT=8080
	LOG_LEVEL=info            # trace, debug, info, warn, error
	LOG_FORMAT=json           # json or console
	CHAT_ROOMS=general,veterans,active-duty,family,transition,support
	STORE_BACKEND=badger      # badger, pebble, redis, memory
	STORE_PATH=/data/haven/history
	CRISIS_COOLDOWN=5m
	NATS_ENABLED=false

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the hub
closes every connection with a close frame, the persister flushes its queue,
and pending safety events are published before the store is closed.
*/
package main
