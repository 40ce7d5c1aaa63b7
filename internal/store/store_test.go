// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func testMessage(room string, i int) *models.Message {
	return &models.Message{
		ID:          fmt.Sprintf("1767225600%03d-%08x", i, i),
		Room:        room,
		DisplayName: "Doc",
		Content:     fmt.Sprintf("message %d", i),
		Timestamp:   time.Date(2026, 5, 1, 12, 0, i, 0, time.UTC),
	}
}

// runStoreSuite exercises the behavior every backend must share.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("round trip in send order", func(t *testing.T) {
		s := open(t)
		for i := 0; i < 5; i++ {
			if err := s.Append(ctx, testMessage("general", i)); err != nil {
				t.Fatalf("Append %d: %v", i, err)
			}
		}
		got, err := s.Recent(ctx, "general", 50)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("Recent returned %d messages, want 5", len(got))
		}
		for i, m := range got {
			want := testMessage("general", i)
			if m.ID != want.ID || m.Content != want.Content || !m.Timestamp.Equal(want.Timestamp) {
				t.Errorf("message %d = %+v, want %+v", i, m, want)
			}
		}
	})

	t.Run("limit returns newest", func(t *testing.T) {
		s := open(t)
		for i := 0; i < 10; i++ {
			_ = s.Append(ctx, testMessage("veterans", i))
		}
		got, err := s.Recent(ctx, "veterans", 3)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 3 || got[0].Content != "message 7" || got[2].Content != "message 9" {
			t.Errorf("Recent(3) = %+v", got)
		}
	})

	t.Run("rooms are isolated", func(t *testing.T) {
		s := open(t)
		_ = s.Append(ctx, testMessage("general", 1))
		_ = s.Append(ctx, testMessage("family", 2))

		got, err := s.Recent(ctx, "family", 10)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 1 || got[0].Room != "family" {
			t.Errorf("family history = %+v", got)
		}
		empty, err := s.Recent(ctx, "support", 10)
		if err != nil || len(empty) != 0 {
			t.Errorf("empty room = %v, %v", empty, err)
		}
	})

	t.Run("flag", func(t *testing.T) {
		s := open(t)
		msg := testMessage("general", 4)
		_ = s.Append(ctx, msg)

		if err := s.Flag(ctx, "general", msg.ID); err != nil {
			t.Fatalf("Flag: %v", err)
		}
		if err := s.Flag(ctx, "general", msg.ID); err != nil {
			t.Fatalf("second Flag must be idempotent: %v", err)
		}
		got, _ := s.Recent(ctx, "general", 1)
		if len(got) != 1 || !got[0].IsFlagged {
			t.Errorf("message not flagged: %+v", got)
		}
		if err := s.Flag(ctx, "general", "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Flag(missing) = %v, want ErrNotFound", err)
		}
		if err := s.Flag(ctx, "family", msg.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Flag in another room = %v, want ErrNotFound", err)
		}
	})

	t.Run("zero limit", func(t *testing.T) {
		s := open(t)
		_ = s.Append(ctx, testMessage("general", 1))
		got, err := s.Recent(ctx, "general", 0)
		if err != nil || len(got) != 0 {
			t.Errorf("Recent(0) = %v, %v", got, err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s := NewMemory(100)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemoryStore_Cap(t *testing.T) {
	s := NewMemory(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Append(ctx, testMessage("general", i))
	}
	got, _ := s.Recent(ctx, "general", 10)
	if len(got) != 3 || got[0].Content != "message 2" {
		t.Errorf("capped history = %+v", got)
	}
	_ = s.Close()
	if err := s.Append(ctx, testMessage("general", 9)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
}

func TestBadgerStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenBadgerInMemory()
		if err != nil {
			t.Fatalf("OpenBadgerInMemory: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, true)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	for i := 0; i < 3; i++ {
		_ = s.Append(ctx, testMessage("general", i))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenBadger(dir, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	_ = s.Append(ctx, testMessage("general", 3))

	got, err := s.Recent(ctx, "general", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 4 || got[3].Content != "message 3" {
		t.Errorf("history after reopen = %+v", got)
	}
}

func TestPebbleStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenPebble(t.TempDir(), false)
		if err != nil {
			t.Fatalf("OpenPebble: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPebbleStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenPebble(dir, true)
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	for i := 0; i < 3; i++ {
		_ = s.Append(ctx, testMessage("general", i))
	}
	_ = s.Close()

	s, err = OpenPebble(dir, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	_ = s.Append(ctx, testMessage("general", 3))

	got, err := s.Recent(ctx, "general", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 4 || got[3].Content != "message 3" {
		t.Errorf("history after reopen = %+v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Recent(ctx, "general", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after Close = %v, want ErrClosed", err)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	tests := []struct {
		in, want []byte
	}{
		{[]byte("m/general/"), []byte("m/general0")},
		{[]byte{'a', 0xff}, []byte{'b'}},
		{[]byte{0xff, 0xff}, nil},
	}
	for _, tt := range tests {
		if got := prefixUpperBound(tt.in); string(got) != string(tt.want) {
			t.Errorf("prefixUpperBound(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
