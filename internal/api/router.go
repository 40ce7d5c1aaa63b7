// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havenchat/haven/internal/middleware"
	"github.com/havenchat/haven/internal/session"
)

// Router wires handlers and middleware onto a Chi mux.
type Router struct {
	handler       *Handler
	ws            http.Handler
	chiMiddleware *ChiMiddleware
	identity      session.IdentityPolicy
}

// NewRouter creates a Router. ws serves the WebSocket upgrade; a nil
// middleware factory uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, ws http.Handler, mw *ChiMiddleware, identity session.IdentityPolicy) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		ws:            ws,
		chiMiddleware: mw,
		identity:      identity,
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(router.handler.notFound)
	r.MethodNotAllowed(router.handler.methodNotAllowed)

	// Long-lived connections stay out of the request metrics.
	if router.ws != nil {
		r.Get("/ws", router.ws.ServeHTTP)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/rooms", router.handler.ListRooms)
		r.With(middleware.RequireSession(router.identity)).
			Get("/rooms/{room}/messages", router.handler.RoomHistory)
	})

	return r
}
