// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package broadcast

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/store"
)

// Persister writes messages to the history store from a bounded queue.
// Run it under a supervisor with RunWithContext.
type Persister struct {
	store        store.Store
	queue        chan *models.Message
	writeTimeout time.Duration

	written atomic.Int64
	dropped atomic.Int64
}

// NewPersister creates a persister with room for queueSize pending messages.
func NewPersister(s store.Store, queueSize int, writeTimeout time.Duration) *Persister {
	if queueSize < 1 {
		queueSize = 1
	}
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Persister{
		store:        s,
		queue:        make(chan *models.Message, queueSize),
		writeTimeout: writeTimeout,
	}
}

// Enqueue queues msg without blocking. A full queue drops the message.
func (p *Persister) Enqueue(msg *models.Message) bool {
	select {
	case p.queue <- msg:
		metrics.PersistQueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		p.dropped.Add(1)
		metrics.PersistDropped.Inc()
		logging.Warn().
			Err(models.ErrPersistence).
			Str("room", msg.Room).
			Str("message_id", msg.ID).
			Msg("history queue full, message not persisted")
		return false
	}
}

// RunWithContext drains the queue until ctx is canceled, then writes what
// is already queued before returning.
func (p *Persister) RunWithContext(ctx context.Context) error {
	logging.Info().Int("capacity", cap(p.queue)).Msg("history persister started")
	for {
		select {
		case <-ctx.Done():
			p.drain()
			logging.Info().
				Int64("written", p.written.Load()).
				Int64("dropped", p.dropped.Load()).
				Msg("history persister stopped")
			return ctx.Err()
		case msg := <-p.queue:
			p.write(context.Background(), msg)
		}
	}
}

func (p *Persister) drain() {
	for {
		select {
		case msg := <-p.queue:
			p.write(context.Background(), msg)
		default:
			return
		}
	}
}

func (p *Persister) write(parent context.Context, msg *models.Message) {
	metrics.PersistQueueDepth.Set(float64(len(p.queue)))
	ctx, cancel := context.WithTimeout(parent, p.writeTimeout)
	defer cancel()
	if err := p.store.Append(ctx, msg); err != nil {
		logging.Warn().Err(err).Str("room", msg.Room).Str("message_id", msg.ID).Msg("failed to persist message")
		return
	}
	p.written.Add(1)
}

// Flag marks a stored message as flagged.
func (p *Persister) Flag(ctx context.Context, room, id string) error {
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	return p.store.Flag(ctx, room, id)
}

// Recent reads room history through the same store.
func (p *Persister) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	return p.store.Recent(ctx, room, limit)
}

// Pending returns the number of queued messages.
func (p *Persister) Pending() int {
	return len(p.queue)
}

// Stats returns the number of messages written and dropped.
func (p *Persister) Stats() (written, dropped int64) {
	return p.written.Load(), p.dropped.Load()
}
