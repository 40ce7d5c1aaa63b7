// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"
	"github.com/goccy/go-json"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
)

// Pebble stores history in an embedded PebbleDB. The last issued sequence
// number is written in the same batch as each message.
type Pebble struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions

	mu     sync.Mutex
	next   uint64
	closed bool
}

// OpenPebble opens (or creates) a PebbleDB in dir.
func OpenPebble(dir string, syncWrites bool) (*Pebble, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{Logger: pebbleLogger{}})
	if err != nil {
		return nil, fmt.Errorf("open PebbleDB: %w", err)
	}

	s := &Pebble{db: db, writeOpts: pebble.NoSync}
	if syncWrites {
		s.writeOpts = pebble.Sync
	}

	val, closer, err := db.Get(sequenceKey)
	switch {
	case err == nil:
		if len(val) == seqLen {
			s.next = binary.BigEndian.Uint64(val) + 1
		}
		_ = closer.Close()
	case errors.Is(err, pebble.ErrNotFound):
	default:
		_ = db.Close()
		return nil, fmt.Errorf("read message sequence: %w", err)
	}

	logging.Info().Str("path", dir).Bool("sync_writes", syncWrites).Msg("history store opened (pebble)")
	return s, nil
}

// Append implements Store.
func (s *Pebble) Append(_ context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	seq := s.next
	key := messageKey(msg.Room, seq)
	seqVal := make([]byte, seqLen)
	binary.BigEndian.PutUint64(seqVal, seq)

	b := s.db.NewBatch()
	defer func() { _ = b.Close() }()
	if err := b.Set(key, data, nil); err != nil {
		return fmt.Errorf("set message: %w", err)
	}
	if err := b.Set(indexKey(msg.Room, msg.ID), key, nil); err != nil {
		return fmt.Errorf("set index: %w", err)
	}
	if err := b.Set(sequenceKey, seqVal, nil); err != nil {
		return fmt.Errorf("set sequence: %w", err)
	}
	if err := b.Commit(s.writeOpts); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	s.next++
	return nil
}

// Recent implements Store.
func (s *Pebble) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	out := make([]models.Message, 0, max(limit, 0))
	if limit <= 0 {
		return out, nil
	}

	prefix := roomPrefix(room)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("open iterator: %w", err)
	}
	defer func() { _ = it.Close() }()

	for it.Last(); it.Valid() && len(out) < limit; it.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var m models.Message
		if err := json.Unmarshal(it.Value(), &m); err != nil {
			logging.Warn().Err(err).Str("room", room).Msg("skipping unreadable history entry")
			continue
		}
		out = append(out, m)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	reverseMessages(out)
	return out, nil
}

// Flag implements Store.
func (s *Pebble) Flag(_ context.Context, room, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	key, err := s.get(indexKey(room, id))
	if err != nil {
		return err
	}
	data, err := s.get(key)
	if err != nil {
		return err
	}
	var m models.Message
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	if m.IsFlagged {
		return nil
	}
	m.IsFlagged = true
	if data, err = json.Marshal(&m); err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return s.db.Set(key, data, s.writeOpts)
}

// get returns a copy of the value at key, or ErrNotFound.
func (s *Pebble) get(key []byte) ([]byte, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	out := make([]byte, len(val))
	copy(out, val)
	_ = closer.Close()
	return out, nil
}

// Close implements Store.
func (s *Pebble) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// pebbleLogger routes pebble's internal logging through zerolog.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "pebble").Msgf(format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	logging.Fatal().Str("component", "pebble").Msgf(format, args...)
}
