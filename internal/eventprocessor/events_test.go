// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package eventprocessor

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNewCrisisEvent(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	ev := NewCrisisEvent("veterans", "1767225600123-9f2c4e1a", 3, now)

	if ev.EventID == "" || ev.Kind != KindCrisisDetected {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp must be UTC, got %v", ev.Timestamp.Location())
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := ev.Subject("haven"); got != "haven.safety.veterans" {
		t.Errorf("Subject = %q", got)
	}
}

func TestSafetyEvent_Validate(t *testing.T) {
	tests := []struct {
		name  string
		event SafetyEvent
	}{
		{"missing id", SafetyEvent{Kind: KindCrisisDetected, Room: "general"}},
		{"missing kind", SafetyEvent{EventID: "x", Room: "general"}},
		{"missing room", SafetyEvent{EventID: "x", Kind: KindCrisisDetected}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.event.Validate(); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("Validate = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

// The wire shape is the privacy contract with downstream consumers.
func TestSafetyEvent_WireFields(t *testing.T) {
	data, err := json.Marshal(NewCrisisEvent("general", "1-abc", 2, time.Now()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := []string{"event_id", "kind", "message_id", "resources_shown", "room", "timestamp"}
	if len(keys) != len(want) {
		t.Fatalf("fields = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("fields = %v, want %v", keys, want)
		}
	}
}
