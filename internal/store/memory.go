// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package store

import (
	"context"
	"sync"

	"github.com/havenchat/haven/internal/models"
)

// DefaultMemoryPerRoom bounds the memory backend when no limit is given.
const DefaultMemoryPerRoom = 1000

// Memory keeps the newest messages of each room in process memory.
type Memory struct {
	mu      sync.RWMutex
	rooms   map[string][]models.Message
	perRoom int
	closed  bool
}

// NewMemory creates a memory store holding at most perRoom messages per room.
func NewMemory(perRoom int) *Memory {
	if perRoom <= 0 {
		perRoom = DefaultMemoryPerRoom
	}
	return &Memory{rooms: make(map[string][]models.Message), perRoom: perRoom}
}

// Append implements Store.
func (s *Memory) Append(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	msgs := append(s.rooms[msg.Room], *msg)
	if over := len(msgs) - s.perRoom; over > 0 {
		msgs = append(msgs[:0:0], msgs[over:]...)
	}
	s.rooms[msg.Room] = msgs
	return nil
}

// Recent implements Store.
func (s *Memory) Recent(_ context.Context, room string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	msgs := s.rooms[room]
	if limit <= 0 {
		return []models.Message{}, nil
	}
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Flag implements Store.
func (s *Memory) Flag(_ context.Context, room, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	msgs := s.rooms[room]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			msgs[i].IsFlagged = true
			return nil
		}
	}
	return ErrNotFound
}

// Close implements Store.
func (s *Memory) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
