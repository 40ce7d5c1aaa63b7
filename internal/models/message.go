// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a chat message. Only IsFlagged ever changes after creation.
type Message struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	DisplayName string    `json:"displayName"`
	Content     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	IsFlagged   bool      `json:"isFlagged"`
}

// NewMessagePayload is the data of a new-message event.
type NewMessagePayload struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	IsFlagged   bool      `json:"isFlagged"`
}

// Payload returns the new-message event data for m.
func (m *Message) Payload() NewMessagePayload {
	return NewMessagePayload{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Message:     m.Content,
		Timestamp:   m.Timestamp,
		IsFlagged:   m.IsFlagged,
	}
}

// NewMessageID returns "<unix-millis>-<8 hex chars>". The random suffix keeps
// IDs distinct when two messages share a millisecond.
func NewMessageID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
