// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
)

var sequenceKey = []byte("meta/seq")

// Badger stores history in an embedded BadgerDB.
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) a BadgerDB at path.
func OpenBadger(path string, syncWrites bool) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = syncWrites
	opts.Logger = nil
	return openBadger(opts)
}

// OpenBadgerInMemory opens a BadgerDB without touching disk.
func OpenBadgerInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*Badger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	seq, err := db.GetSequence(sequenceKey, 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open message sequence: %w", err)
	}

	logging.Info().
		Str("path", opts.Dir).
		Bool("sync_writes", opts.SyncWrites).
		Bool("in_memory", opts.InMemory).
		Msg("history store opened (badger)")
	return &Badger{db: db, seq: seq}, nil
}

func (s *Badger) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Append implements Store.
func (s *Badger) Append(_ context.Context, msg *models.Message) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := messageKey(msg.Room, n)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set message: %w", err)
		}
		if err := txn.Set(indexKey(msg.Room, msg.ID), key); err != nil {
			return fmt.Errorf("set index: %w", err)
		}
		return nil
	})
}

// Recent implements Store.
func (s *Badger) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, max(limit, 0))
	if limit <= 0 {
		return out, nil
	}

	prefix := roomPrefix(room)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, seqLen)...)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var m models.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				logging.Warn().Err(err).Str("room", room).Msg("skipping unreadable history entry")
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reverseMessages(out)
	return out, nil
}

// Flag implements Store.
func (s *Badger) Flag(_ context.Context, room, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(room, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get index: %w", err)
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read index: %w", err)
		}

		item, err = txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get message: %w", err)
		}
		var m models.Message
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		}); err != nil {
			return fmt.Errorf("unmarshal message: %w", err)
		}
		if m.IsFlagged {
			return nil
		}
		m.IsFlagged = true
		data, err := json.Marshal(&m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Close releases the sequence lease and closes the database.
func (s *Badger) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("failed to release message sequence")
	}
	return s.db.Close()
}
