// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package api provides the HTTP surface of the chat server on a Chi router.

Routes:

	GET /ws                                   WebSocket upgrade (chat events)
	GET /api/v1/rooms                         room catalog with live member counts
	GET /api/v1/rooms/{room}/messages         recent history, send order
	GET /api/v1/health/live                   liveness probe
	GET /api/v1/health/ready                  readiness probe (store breaker)
	GET /metrics                              Prometheus exposition

Every JSON response uses models.APIResponse. History requests require an
anonymous session ID, passed as the sessionId query parameter or the
X-Session-ID header, and are rate limited per client IP with httprate.

History is best-effort. When the store cannot be read the endpoint still
answers 200 with an empty message list and metadata.degraded set, so clients
can join a room while persistence is unavailable.

Middleware order (global):

 1. RequestID: X-Request-ID plus request and correlation IDs in the log context
 2. RealIP: client IP from X-Forwarded-For / X-Real-IP
 3. Recoverer: panics become 500s
 4. CORS: go-chi/cors, global so preflight requests are answered
*/
package api
