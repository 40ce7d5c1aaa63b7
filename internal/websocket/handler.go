// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/havenchat/haven/internal/logging"
)

// Handler upgrades GET /ws requests and hands the connection to the hub.
type Handler struct {
	hub      *Hub
	allowed  []string
	upgrader websocket.Upgrader
}

// NewHandler creates the upgrade handler. Browsers must send an Origin that
// matches the request host or one of allowedOrigins ("*" allows any).
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, allowed: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	NewClient(h.hub, conn).Start()
}

// checkOrigin rejects a missing Origin header: browsers always send one,
// and the session client sets it from the dial URL.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.allowed {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	logging.Warn().Str("origin", logging.SafeValue(origin, 128)).Msg("websocket connection rejected from unauthorized origin")
	return false
}
