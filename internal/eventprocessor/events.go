// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// KindCrisisDetected is the kind of event emitted when crisis resources are
// shown to a room.
const KindCrisisDetected = "crisis_detected"

// SafetyEvent reports crisis activity in a room. It deliberately has no
// field for content, display name or session ID.
type SafetyEvent struct {
	EventID        string    `json:"event_id"`
	Kind           string    `json:"kind"`
	Room           string    `json:"room"`
	MessageID      string    `json:"message_id"`
	Timestamp      time.Time `json:"timestamp"`
	ResourcesShown int       `json:"resources_shown"`
}

// NewCrisisEvent builds a crisis_detected event.
func NewCrisisEvent(room, messageID string, resources int, now time.Time) *SafetyEvent {
	return &SafetyEvent{
		EventID:        uuid.NewString(),
		Kind:           KindCrisisDetected,
		Room:           room,
		MessageID:      messageID,
		Timestamp:      now.UTC(),
		ResourcesShown: resources,
	}
}

// Validate checks required fields.
func (e *SafetyEvent) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case e.Kind == "":
		return fmt.Errorf("%w: kind is required", ErrInvalidEvent)
	case e.Room == "":
		return fmt.Errorf("%w: room is required", ErrInvalidEvent)
	}
	return nil
}

// Subject returns the NATS subject for the event under prefix.
// Format: <prefix>.safety.<room>
func (e *SafetyEvent) Subject(prefix string) string {
	return prefix + ".safety." + e.Room
}
