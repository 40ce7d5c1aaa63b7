// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
)

const (
	writeWait     = 10 * time.Second
	dialTimeout   = 10 * time.Second
	channelBuffer = 256
)

// ErrNotJoined is returned by Send and Report before the join completes.
var ErrNotJoined = errors.New("session not joined")

// ClientConfig configures a reconnecting chat client.
type ClientConfig struct {
	// URL is the server's WebSocket endpoint, e.g. ws://localhost:8080/ws.
	URL      string
	Room     string
	Identity models.AnonymousIdentity
	Policy   Policy
	Debounce time.Duration
	Dialer   *websocket.Dialer
	Header   http.Header
}

// Client is a reconnecting chat connection for one room.
type Client struct {
	cfg ClientConfig

	mu     sync.Mutex
	status Status
	conn   *websocket.Conn
	gen    uint64
	retry  *time.Timer
	closed bool

	writeMu sync.Mutex

	// chMu guards sends on the output channels against Close.
	chMu      sync.RWMutex
	chClosed  bool
	debouncer *Debouncer
	states    chan Status
	events    chan models.InboundEnvelope
	counts    chan int
	errs      chan error
}

// NewClient validates cfg and returns a disconnected client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" || cfg.Room == "" {
		return nil, fmt.Errorf("client requires URL and room")
	}
	if cfg.Identity.SessionID == "" || cfg.Identity.DisplayName == "" {
		return nil, fmt.Errorf("client requires a session ID and display name")
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{HandshakeTimeout: dialTimeout}
	}
	cfg.Header = withOrigin(cfg.Header, cfg.URL)
	c := &Client{
		cfg:    cfg,
		states: make(chan Status, channelBuffer),
		events: make(chan models.InboundEnvelope, channelBuffer),
		counts: make(chan int, channelBuffer),
		errs:   make(chan error, channelBuffer),
	}
	c.debouncer = NewDebouncer(cfg.Debounce, func(n int) { c.emit(func() { offer(c.counts, n) }) })
	return c, nil
}

// States delivers every status change.
func (c *Client) States() <-chan Status { return c.states }

// Events delivers every server event, including user-left and
// crisis-resources.
func (c *Client) Events() <-chan models.InboundEnvelope { return c.events }

// MemberCounts delivers debounced member counts.
func (c *Client) MemberCounts() <-chan int { return c.counts }

// Errors delivers surfaced errors: join rejections and exhausted retries.
func (c *Client) Errors() <-chan error { return c.errs }

// Status returns the current status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect starts connecting. Progress is reported on States.
func (c *Client) Connect() {
	c.dispatch(Event{Kind: Dial})
}

// Retry dials again after the client gave up.
func (c *Client) Retry() {
	c.dispatch(Event{Kind: ManualRetry})
}

// Leave cancels pending retries and closes the connection. The client does
// not reconnect until Connect is called again.
func (c *Client) Leave() {
	c.mu.Lock()
	conn := c.conn
	joined := c.status.State == Joined
	c.mu.Unlock()
	if joined && conn != nil {
		_ = c.write(conn, models.Envelope{Type: models.EventLeaveRoom, Data: models.LeaveRoomRequest{Room: c.cfg.Room}})
	}
	c.dispatch(Event{Kind: UserLeave})
}

// Close leaves, stops all background work and closes the States, Events,
// MemberCounts and Errors channels. The client cannot be reused.
func (c *Client) Close() {
	c.Leave()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.debouncer.Stop()

	c.chMu.Lock()
	defer c.chMu.Unlock()
	if c.chClosed {
		return
	}
	c.chClosed = true
	close(c.states)
	close(c.events)
	close(c.counts)
	close(c.errs)
}

// emit runs send unless Close has closed the output channels.
func (c *Client) emit(send func()) {
	c.chMu.RLock()
	defer c.chMu.RUnlock()
	if !c.chClosed {
		send()
	}
}

// Send posts a chat message to the room.
func (c *Client) Send(text string) error {
	return c.sendJoined(models.Envelope{Type: models.EventSendMessage, Data: models.SendMessageRequest{Room: c.cfg.Room, Message: text}})
}

// Report flags a message in the room.
func (c *Client) Report(messageID string) error {
	return c.sendJoined(models.Envelope{Type: models.EventReportMessage, Data: models.ReportMessageRequest{Room: c.cfg.Room, MessageID: messageID}})
}

func (c *Client) sendJoined(env models.Envelope) error {
	c.mu.Lock()
	conn := c.conn
	joined := c.status.State == Joined
	c.mu.Unlock()
	if !joined || conn == nil {
		return ErrNotJoined
	}
	return c.write(conn, env)
}

func (c *Client) write(conn *websocket.Conn, env models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", env.Type, err)
	}
	return nil
}

// dispatch feeds ev to the state machine and performs the resulting effects.
func (c *Client) dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(ev)
}

// dispatchFrom ignores events raised by a superseded connection.
func (c *Client) dispatchFrom(gen uint64, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.dispatchLocked(ev)
}

func (c *Client) dispatchLocked(ev Event) {
	if c.closed {
		return
	}
	prev := c.status
	next, effects := Transition(prev, ev, c.cfg.Policy)
	c.status = next

	for _, eff := range effects {
		c.apply(eff)
	}
	if next.State != prev.State || next.Attempt != prev.Attempt {
		logging.Debug().
			Str("from", prev.State.String()).
			Str("to", next.State.String()).
			Str("event", ev.Kind.String()).
			Int("attempt", next.Attempt).
			Msg("chat session state changed")
		c.emit(func() { offer(c.states, next) })
	}
}

// apply runs with c.mu held. Blocking work happens on other goroutines.
func (c *Client) apply(eff Effect) {
	switch eff.Kind {
	case EffectDial:
		c.gen++
		go c.dial(c.gen)
	case EffectSendJoin:
		conn := c.conn
		join := models.Envelope{Type: models.EventJoinRoom, Data: models.JoinRoomRequest{
			Room:        c.cfg.Room,
			SessionID:   c.cfg.Identity.SessionID,
			DisplayName: c.cfg.Identity.DisplayName,
		}}
		go func() {
			if err := c.write(conn, join); err != nil {
				_ = conn.Close()
			}
		}()
	case EffectScheduleRetry:
		c.stopRetry()
		c.retry = time.AfterFunc(eff.Delay, func() { c.dispatch(Event{Kind: RetryTimerFired}) })
	case EffectCancelRetry:
		c.stopRetry()
	case EffectCloseTransport:
		c.gen++
		// Counts from the old connection must not land after the next join.
		c.debouncer.Cancel()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
	case EffectSurfaceError:
		c.emit(func() { offer(c.errs, eff.Err) })
	}
}

func (c *Client) stopRetry() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Client) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.dispatchFrom(gen, Event{Kind: HandshakeFailed, Err: fmt.Errorf("dial %s: %w", c.cfg.URL, err)})
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.dispatchLocked(Event{Kind: HandshakeOK})
	c.mu.Unlock()

	go c.readLoop(gen, conn)
}

func (c *Client) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.dispatchFrom(gen, Event{Kind: TransportLost, Err: models.NewError(models.ErrTransport, "Connection lost.", err)})
			return
		}
		var env models.InboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			logging.Warn().Err(err).Msg("discarding undecodable server frame")
			continue
		}
		c.handle(gen, env)
	}
}

func (c *Client) handle(gen uint64, env models.InboundEnvelope) {
	switch env.Type {
	case models.EventJoined:
		var p models.JoinedPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			c.whileCurrent(gen, func() { c.emit(func() { offer(c.counts, p.MemberCount) }) })
		}
		c.dispatchFrom(gen, Event{Kind: JoinOK})
	case models.EventMemberCount:
		var p models.MemberCountPayload
		if err := json.Unmarshal(env.Data, &p); err == nil {
			c.whileCurrent(gen, func() { c.debouncer.Update(p.MemberCount) })
		}
	case models.EventError:
		if c.Status().State == Connected {
			var p models.ErrorPayload
			_ = json.Unmarshal(env.Data, &p)
			c.dispatchFrom(gen, Event{Kind: JoinRejected, Err: fmt.Errorf("join rejected: %s (%s)", p.Message, p.Code)})
		}
	}
	c.emit(func() { offer(c.events, env) })
}

// whileCurrent runs fn with c.mu held if gen is still the live connection,
// so a concurrent close cannot slip in between the check and fn.
func (c *Client) whileCurrent(gen uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen && !c.closed {
		fn()
	}
}

// withOrigin sets Origin to the http(s) form of the dial URL unless the
// caller already set one.
func withOrigin(h http.Header, raw string) http.Header {
	out := h.Clone()
	if out == nil {
		out = http.Header{}
	}
	if out.Get("Origin") != "" {
		return out
	}
	u, err := url.Parse(raw)
	if err != nil {
		return out
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	out.Set("Origin", scheme+"://"+u.Host)
	return out
}

// offer sends without blocking; a consumer that stops reading loses values.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
