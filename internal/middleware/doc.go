// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package middleware provides HTTP middleware for the REST surface.

All middleware has the chi signature func(http.Handler) http.Handler:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.RequireSession(policy)).Get("/rooms/{room}/messages", h.RoomHistory)

  - RequestID: reuses a sane upstream X-Request-ID or generates a UUID, and
    seeds the logging context with request and correlation IDs
  - PrometheusMetrics: request count, duration and in-flight gauge, labeled
    by chi route pattern so room names never become label values
  - RequireSession: rejects requests without a well-formed anonymous session
    ID (query sessionId or X-Session-ID header) with 400 VALIDATION_ERROR

PrometheusMetrics wraps the ResponseWriter and must not be applied to the
WebSocket upgrade route.
*/
package middleware
