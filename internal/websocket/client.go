// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// clientIDCounter hands out process-unique, increasing connection IDs.
var clientIDCounter atomic.Uint64

// Client is one WebSocket connection. It belongs to at most one room at a
// time.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan models.Envelope
	limiter *rate.Limiter
	ctx     context.Context

	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	room     string
	identity models.AnonymousIdentity
}

// NewClient creates a client for conn with the hub's limits.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	id := clientIDCounter.Add(1)
	return &Client{
		id:      id,
		hub:     hub,
		conn:    conn,
		send:    make(chan models.Envelope, hub.limits.SendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(hub.limits.MessageRate), hub.limits.MessageBurst),
		ctx:     logging.ContextWithConnID(context.Background(), id),
		done:    make(chan struct{}),
	}
}

// ID implements rooms.Conn.
func (c *Client) ID() uint64 {
	return c.id
}

// Deliver implements rooms.Conn. It never blocks: a full queue closes the
// connection and returns false.
func (c *Client) Deliver(env models.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- env:
		return true
	default:
		metrics.WSSlowConsumers.Inc()
		logging.Warn().
			Uint64("conn_id", c.id).
			Int("queue_size", cap(c.send)).
			Msg("websocket client too slow, closing connection")
		c.closeTransport()
		return false
	}
}

// reply delivers an event to this connection only.
func (c *Client) reply(env models.Envelope) {
	c.Deliver(env)
}

func (c *Client) closeTransport() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// shutdown stops the write pump. Safe to call more than once.
func (c *Client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Client) current() (string, models.AnonymousIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.identity
}

func (c *Client) setCurrent(room string, identity models.AnonymousIdentity) {
	c.mu.Lock()
	c.room = room
	c.identity = identity
	c.mu.Unlock()
}

// leaveCurrent removes the client from its room, if any.
func (c *Client) leaveCurrent() {
	c.mu.Lock()
	room, sid := c.room, c.identity.SessionID
	c.room = ""
	c.identity = models.AnonymousIdentity{}
	c.mu.Unlock()

	if room != "" {
		c.hub.broadcaster.Leave(room, sid, c.id)
	}
}

// readPump decodes inbound frames until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.requestUnregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("conn_id", c.id).Msg("unexpected websocket close")
			}
			return
		}

		var env models.InboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.replyError(models.NewError(models.ErrBadRequest, "The request could not be understood.", err))
			continue
		}
		c.handle(env)
	}
}

// writePump writes queued events and keepalive pings. It is the only
// writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
			data, err := json.Marshal(env)
			if err != nil {
				logging.Error().Err(err).Str("event", env.Type).Msg("failed to encode websocket event")
				continue
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("websocket write failed")
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start registers the client and begins reading and writing.
func (c *Client) Start() {
	if !c.hub.requestRegister(c) {
		_ = c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
