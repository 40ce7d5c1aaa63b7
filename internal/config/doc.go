// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package config provides centralized configuration management for Haven.

# Configuration Sources

Configuration is layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the --config flag, CONFIG_PATH, or config.yaml in
    the working directory, then /etc/haven/config.yaml
 3. Environment variables, through the explicit mapping in envTransformFunc

List values (rooms, crisis phrases, CORS origins) may be given as
comma-separated strings in the environment.

# Sections

  - server: HTTP bind address, timeouts, environment
  - logging: zerolog level and format
  - chat: room catalog, session ID policy, message and history limits
  - crisis: phrase list, per-room cooldown, resources shown on a match
  - store: history backend (badger, pebble, redis, memory) and breaker tuning
  - redis: connection settings for the redis backend
  - nats: safety event publishing and the optional embedded server
  - security: CORS, WebSocket origins, HTTP rate limits
  - presence, reconnect: client-side debounce and backoff policy

# Environment Variables

Common variables:

	HTTP_PORT           server.port (default: 8080)
	LOG_LEVEL           logging.level (default: info)
	CHAT_ROOMS          chat.rooms (default: general,veterans,active-duty,family,transition,support)
	SESSION_PREFIX      chat.session_prefix (default: anon_)
	CRISIS_COOLDOWN     crisis.cooldown (default: 5m)
	CRISIS_PHRASES      crisis.phrases
	STORE_BACKEND       store.backend (default: badger)
	STORE_PATH          store.path (default: /data/haven/history)
	NATS_ENABLED        nats.enabled (default: false)

Validate rejects incomplete or out-of-range values before the server starts.
*/
package config
