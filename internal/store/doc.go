// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package store keeps best-effort recent message history per room.

History is not a source of truth. The broadcaster never waits for it, and a
failed write is logged and counted, never shown to users. The HTTP history
endpoint degrades to an empty list when the store is unavailable.

# Backends

  - badger (default): embedded LSM store, github.com/dgraph-io/badger/v4
  - pebble: embedded LSM store, github.com/cockroachdb/pebble/v2
  - redis: shared store, github.com/redis/go-redis/v9
  - memory: process-local ring per room, for tests and ephemeral deployments

# Key Layout (badger, pebble)

	m/<room>/<seq:8 bytes big-endian>  -> message JSON
	i/<room>/<message id>              -> m/... key

Sequence numbers increase across the whole store, so a reverse prefix scan
returns a room's newest messages first.

# Resilience

Open wraps the selected backend in a BreakerStore: every call goes through a
sony/gobreaker circuit breaker, is timed into Prometheus, and failures are
reported as models.ErrPersistence.
*/
package store
