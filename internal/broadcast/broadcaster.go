// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/havenchat/haven/internal/crisis"
	"github.com/havenchat/haven/internal/eventprocessor"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/rooms"
	"github.com/havenchat/haven/internal/store"
	"github.com/havenchat/haven/internal/validation"
)

// Config holds broadcaster limits.
type Config struct {
	// MaxMessageLength is the maximum content length in runes after sanitizing.
	MaxMessageLength int

	// PublishTimeout bounds one safety event publish.
	PublishTimeout time.Duration
}

const defaultPublishTimeout = 5 * time.Second

// Broadcaster delivers chat and presence events to room members.
type Broadcaster struct {
	registry  *rooms.Registry
	side      *crisis.SideChannel
	persister *Persister
	publisher eventprocessor.SafetyPublisher
	cfg       Config

	// fanout is built once from the catalog and never modified.
	fanout map[string]*sync.Mutex

	publishWG sync.WaitGroup
	now       func() time.Time
}

// New creates a Broadcaster over registry. side may be nil (crisis detection
// disabled), persister may be nil (no history), and publisher may be nil
// (no safety events).
func New(registry *rooms.Registry, side *crisis.SideChannel, persister *Persister, publisher eventprocessor.SafetyPublisher, cfg Config) *Broadcaster {
	if publisher == nil {
		publisher = eventprocessor.NoopPublisher{}
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	b := &Broadcaster{
		registry:  registry,
		side:      side,
		persister: persister,
		publisher: publisher,
		cfg:       cfg,
		fanout:    make(map[string]*sync.Mutex),
		now:       time.Now,
	}
	for _, name := range registry.Rooms() {
		b.fanout[name] = &sync.Mutex{}
	}
	registry.OnPresence(func(ev rooms.PresenceEvent) {
		metrics.SetRoomMembers(ev.Room, ev.Count)
	})
	return b
}

func (b *Broadcaster) lock(room string) (*sync.Mutex, error) {
	mu, ok := b.fanout[room]
	if !ok {
		return nil, models.NewError(models.ErrInvalidRoom, "That room does not exist.", nil)
	}
	mu.Lock()
	return mu, nil
}

// Broadcast delivers env to every current member of room and returns how
// many connections accepted it.
func (b *Broadcaster) Broadcast(room string, env models.Envelope) (int, error) {
	mu, err := b.lock(room)
	if err != nil {
		return 0, err
	}
	defer mu.Unlock()
	return b.deliverLocked(room, env), nil
}

// deliverLocked must be called with the room's fan-out mutex held.
func (b *Broadcaster) deliverLocked(room string, env models.Envelope) int {
	members := b.registry.Members(room)
	delivered := 0
	for i := range members {
		if members[i].Conn == nil {
			continue
		}
		if members[i].Conn.Deliver(env) {
			delivered++
			continue
		}
		logging.Debug().
			Str("room", room).
			Str("event", env.Type).
			Uint64("conn_id", members[i].Conn.ID()).
			Msg("delivery refused by slow consumer")
	}
	return delivered
}

// Join adds identity to room. The joiner receives joined-successfully and
// the room, joiner included, receives the new member count.
func (b *Broadcaster) Join(room string, identity models.AnonymousIdentity, conn rooms.Conn) (int, error) {
	if _, err := b.registry.Join(room, identity.SessionID, identity.DisplayName, conn); err != nil {
		return 0, err
	}

	mu, err := b.lock(room)
	if err != nil {
		return 0, err
	}
	defer mu.Unlock()

	count := b.registry.MemberCount(room)
	conn.Deliver(models.Envelope{Type: models.EventJoined, Data: models.JoinedPayload{MemberCount: count}})
	b.deliverLocked(room, models.Envelope{Type: models.EventMemberCount, Data: models.MemberCountPayload{MemberCount: count}})
	return count, nil
}

// Leave removes sessionID from room if connID still owns the membership,
// then tells the remaining members. It reports whether anything was removed.
func (b *Broadcaster) Leave(room, sessionID string, connID uint64) bool {
	member, _, removed := b.registry.LeaveConn(room, sessionID, connID)
	if !removed {
		return false
	}

	mu, err := b.lock(room)
	if err != nil {
		return false
	}
	defer mu.Unlock()

	count := b.registry.MemberCount(room)
	b.deliverLocked(room, models.Envelope{Type: models.EventUserLeft, Data: models.UserLeftPayload{
		Message:     leftMessage(member.DisplayName),
		MemberCount: count,
	}})
	b.deliverLocked(room, models.Envelope{Type: models.EventMemberCount, Data: models.MemberCountPayload{MemberCount: count}})
	return true
}

func leftMessage(name string) string {
	if name == "" {
		return "A member left the room"
	}
	return name + " left the room"
}

// Send validates content, fans it out to room as new-message, queues it for
// history, and runs the crisis side channel.
func (b *Broadcaster) Send(ctx context.Context, room string, identity models.AnonymousIdentity, content string) (*models.Message, error) {
	if !b.registry.Exists(room) {
		return nil, models.NewError(models.ErrInvalidRoom, "That room does not exist.", nil)
	}

	text := validation.SanitizeText(content)
	if text == "" {
		return nil, models.NewError(models.ErrValidation, "Message cannot be empty.", nil)
	}
	if b.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(text) > b.cfg.MaxMessageLength {
		return nil, models.NewError(models.ErrValidation,
			fmt.Sprintf("Message must be at most %d characters.", b.cfg.MaxMessageLength), nil)
	}

	now := b.now().UTC()
	msg := &models.Message{
		ID:          models.NewMessageID(now),
		Room:        room,
		DisplayName: identity.DisplayName,
		Content:     text,
		Timestamp:   now,
	}

	match := b.side.Check(room, text)
	if match.Matched {
		msg.IsFlagged = true
		metrics.CrisisMatches.WithLabelValues(room).Inc()
	}

	mu, err := b.lock(room)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	b.deliverLocked(room, models.Envelope{Type: models.EventNewMessage, Data: msg.Payload()})
	metrics.FanoutDuration.Observe(time.Since(start).Seconds())
	metrics.MessagesBroadcast.WithLabelValues(room).Inc()

	var alerted bool
	if match.Matched {
		var alert models.Envelope
		if alert, alerted = b.side.Alert(room, now); alerted {
			b.deliverLocked(room, alert)
			metrics.CrisisAlerts.WithLabelValues(room).Inc()
		}
	}
	mu.Unlock()

	if b.persister != nil {
		b.persister.Enqueue(msg)
	}
	if alerted {
		b.publishSafety(ctx, eventprocessor.NewCrisisEvent(room, msg.ID, b.side.ResourceCount(), now))
	}
	return msg, nil
}

// publishSafety publishes off the caller's goroutine. The cooldown bounds
// how often this runs per room.
func (b *Broadcaster) publishSafety(ctx context.Context, ev *eventprocessor.SafetyEvent) {
	b.publishWG.Add(1)
	go func() {
		defer b.publishWG.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.PublishTimeout)
		defer cancel()
		err := b.publisher.PublishSafety(pctx, ev)
		metrics.RecordSafetyEvent(err)
		if err != nil {
			logging.Warn().Err(err).Str("room", ev.Room).Str("event_id", ev.EventID).Msg("safety event publish failed")
		}
	}()
}

// Report flags a stored message. Reports for messages not in history are
// rejected; store outages are logged and the report is still acknowledged.
func (b *Broadcaster) Report(ctx context.Context, room, messageID string) error {
	if !b.registry.Exists(room) {
		return models.NewError(models.ErrInvalidRoom, "That room does not exist.", nil)
	}
	metrics.MessagesReported.WithLabelValues(room).Inc()
	if b.persister == nil {
		return nil
	}
	err := b.persister.Flag(ctx, room, messageID)
	switch {
	case err == nil:
		logging.Info().Str("room", room).Str("message_id", messageID).Msg("message reported")
		return nil
	case errors.Is(err, store.ErrNotFound):
		return models.NewError(models.ErrValidation, "That message could not be found.", err)
	default:
		logging.Warn().Err(err).Str("room", room).Str("message_id", messageID).Msg("report could not be recorded")
		return nil
	}
}

// Wait blocks until in-flight safety event publishes finish.
func (b *Broadcaster) Wait() {
	b.publishWG.Wait()
}
