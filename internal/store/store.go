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

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/models"
)

var (
	// ErrNotFound is returned by Flag when the message is not in history.
	ErrNotFound = errors.New("message not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// Store is the message history backend.
type Store interface {
	// Append records a message.
	Append(ctx context.Context, msg *models.Message) error

	// Recent returns up to limit of the room's newest messages, oldest first.
	Recent(ctx context.Context, room string, limit int) ([]models.Message, error)

	// Flag sets IsFlagged on a stored message.
	Flag(ctx context.Context, room, id string) error

	Close() error
}

// Open builds the configured backend wrapped in a circuit breaker.
func Open(cfg *config.Config) (*BreakerStore, error) {
	var (
		inner Store
		err   error
	)
	switch cfg.Store.Backend {
	case "badger":
		inner, err = OpenBadger(cfg.Store.Path, cfg.Store.SyncWrites)
	case "pebble":
		inner, err = OpenPebble(cfg.Store.Path, cfg.Store.SyncWrites)
	case "redis":
		inner, err = OpenRedis(&cfg.Redis, cfg.Store.MaxPerRoom)
	case "memory":
		inner = NewMemory(int(cfg.Store.MaxPerRoom))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return NewBreakerStore(inner, cfg.Store.Backend, cfg.Store.BreakerFailures, cfg.Store.BreakerTimeout), nil
}

const (
	messagePrefix = "m/"
	indexPrefix   = "i/"
	seqLen        = 8
)

func roomPrefix(room string) []byte {
	return []byte(messagePrefix + room + "/")
}

func messageKey(room string, seq uint64) []byte {
	p := roomPrefix(room)
	key := make([]byte, len(p)+seqLen)
	copy(key, p)
	binary.BigEndian.PutUint64(key[len(p):], seq)
	return key
}

func indexKey(room, id string) []byte {
	return []byte(indexPrefix + room + "/" + id)
}

// prefixUpperBound returns the smallest key greater than every key with
// prefix p.
func prefixUpperBound(p []byte) []byte {
	end := make([]byte, len(p))
	copy(end, p)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// reverseMessages reverses newest-first scan output into send order.
func reverseMessages(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
