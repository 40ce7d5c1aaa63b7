// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/havenchat/haven/internal/broadcast"
	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/rooms"
	"github.com/havenchat/haven/internal/session"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Limits holds per-connection limits.
type Limits struct {
	SendQueueSize int
	MessageRate   float64
	MessageBurst  int
}

// LimitsFrom builds Limits from chat configuration.
func LimitsFrom(cfg *config.ChatConfig) Limits {
	return Limits{SendQueueSize: cfg.SendQueueSize, MessageRate: cfg.MessageRate, MessageBurst: cfg.MessageBurst}
}

// Hub owns the set of live connections and their register/unregister
// lifecycle. Chat fan-out goes through the Broadcaster, not the hub.
type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	registry    *rooms.Registry
	broadcaster *broadcast.Broadcaster
	identity    session.IdentityPolicy
	limits      Limits

	quit     chan struct{}
	quitOnce sync.Once
}

// NewHub creates a Hub.
func NewHub(registry *rooms.Registry, b *broadcast.Broadcaster, identity session.IdentityPolicy, limits Limits) *Hub {
	if limits.SendQueueSize < 1 {
		limits.SendQueueSize = 256
	}
	if limits.MessageRate <= 0 {
		limits.MessageRate = 2
	}
	if limits.MessageBurst < 1 {
		limits.MessageBurst = 5
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		registry:    registry,
		broadcaster: b,
		identity:    identity,
		limits:      limits,
		quit:        make(chan struct{}),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// connection and returns ctx.Err(). It is meant to run under suture.
//
// Shutdown is checked first, then lifecycle events, then the blocking wait,
// so a canceled context always wins over pending registrations.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Uint64("conn_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

// unregister removes the client's room membership before stopping its
// writer, so the room learns of the departure immediately.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.leaveCurrent()
	client.shutdown()
	metrics.WSConnections.Dec()
	logging.Debug().Uint64("conn_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

// requestUnregister hands client to the hub, or cleans up directly once the
// hub has stopped.
func (h *Hub) requestUnregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.quit:
		client.leaveCurrent()
		client.shutdown()
	}
}

// requestRegister hands client to the hub. It returns false once the hub
// has stopped.
func (h *Hub) requestRegister(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// logGracefulShutdown closes every client and logs the shutdown. ctx.Err()
// is not logged as an error; cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.quitOnce.Do(func() { close(h.quit) })
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes clients in ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		client.leaveCurrent()
		client.shutdown()
		metrics.WSConnections.Dec()
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
