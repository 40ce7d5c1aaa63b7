// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package broadcast

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/crisis"
	"github.com/havenchat/haven/internal/eventprocessor"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/rooms"
	"github.com/havenchat/haven/internal/store"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

type recordingConn struct {
	id     uint64
	refuse bool

	mu     sync.Mutex
	events []models.Envelope
}

func (c *recordingConn) ID() uint64 { return c.id }

func (c *recordingConn) Deliver(env models.Envelope) bool {
	if c.refuse {
		return false
	}
	c.mu.Lock()
	c.events = append(c.events, env)
	c.mu.Unlock()
	return true
}

func (c *recordingConn) ofType(typ string) []models.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Envelope
	for _, e := range c.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (c *recordingConn) reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventprocessor.SafetyEvent
}

func (p *recordingPublisher) PublishSafety(_ context.Context, ev *eventprocessor.SafetyEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testCrisisConfig() *config.CrisisConfig {
	return &config.CrisisConfig{
		Enabled:   true,
		Phrases:   []string{"end my life", "kill myself"},
		Cooldown:  time.Minute,
		Message:   "Help is available.",
		Resources: []config.CrisisResource{{Name: "Veterans Crisis Line", Contact: "988 press 1"}},
	}
}

type fixture struct {
	registry  *rooms.Registry
	b         *Broadcaster
	persister *Persister
	history   *store.Memory
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := rooms.NewRegistry([]string{"general", "veterans"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	side, err := crisis.NewSideChannel(testCrisisConfig())
	if err != nil {
		t.Fatalf("NewSideChannel: %v", err)
	}
	history := store.NewMemory(100)
	p := NewPersister(history, 64, time.Second)
	pub := &recordingPublisher{}
	return &fixture{
		registry:  reg,
		b:         New(reg, side, p, pub, Config{MaxMessageLength: 500}),
		persister: p,
		history:   history,
		publisher: pub,
	}
}

func identity(name string) models.AnonymousIdentity {
	return models.AnonymousIdentity{SessionID: "anon_" + strings.ToLower(name) + "_0123456789", DisplayName: name}
}

func TestJoinAndLeave_Presence(t *testing.T) {
	f := newFixture(t)
	a := &recordingConn{id: 1}
	b := &recordingConn{id: 2}

	if n, err := f.b.Join("general", identity("A"), a); err != nil || n != 1 {
		t.Fatalf("Join A = %d, %v", n, err)
	}
	if n, err := f.b.Join("general", identity("B"), b); err != nil || n != 2 {
		t.Fatalf("Join B = %d, %v", n, err)
	}

	joined := b.ofType(models.EventJoined)
	if len(joined) != 1 || joined[0].Data.(models.JoinedPayload).MemberCount != 2 {
		t.Errorf("B joined events = %+v", joined)
	}
	counts := a.ofType(models.EventMemberCount)
	if len(counts) != 2 || counts[1].Data.(models.MemberCountPayload).MemberCount != 2 {
		t.Errorf("A member-count events = %+v", counts)
	}

	a.reset()
	if !f.b.Leave("general", identity("B").SessionID, b.ID()) {
		t.Fatal("Leave should remove B")
	}
	left := a.ofType(models.EventUserLeft)
	if len(left) != 1 {
		t.Fatalf("user-left events = %d, want 1", len(left))
	}
	payload := left[0].Data.(models.UserLeftPayload)
	if payload.MemberCount != 1 || payload.Message != "B left the room" {
		t.Errorf("user-left payload = %+v", payload)
	}
	if got := a.ofType(models.EventMemberCount); len(got) != 1 || got[0].Data.(models.MemberCountPayload).MemberCount != 1 {
		t.Errorf("member-count after leave = %+v", got)
	}

	if f.b.Leave("general", identity("B").SessionID, b.ID()) {
		t.Error("second Leave should be a no-op")
	}
}

func TestLeave_UsesNameAtRemoval(t *testing.T) {
	f := newFixture(t)
	a := &recordingConn{id: 1}
	b := &recordingConn{id: 2}
	_, _ = f.b.Join("general", identity("A"), a)
	_, _ = f.b.Join("general", identity("B"), b)

	renamed := identity("B")
	renamed.DisplayName = "Doc"
	if _, err := f.b.Join("general", renamed, b); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	a.reset()
	if !f.b.Leave("general", renamed.SessionID, b.ID()) {
		t.Fatal("Leave should remove B")
	}
	left := a.ofType(models.EventUserLeft)
	if len(left) != 1 || left[0].Data.(models.UserLeftPayload).Message != "Doc left the room" {
		t.Errorf("user-left events = %+v", left)
	}
}

func TestLeave_StaleConnection(t *testing.T) {
	f := newFixture(t)
	old := &recordingConn{id: 1}
	fresh := &recordingConn{id: 2}
	id := identity("A")

	if _, err := f.b.Join("general", id, old); err != nil {
		t.Fatal(err)
	}
	if _, err := f.b.Join("general", id, fresh); err != nil {
		t.Fatal(err)
	}
	if f.b.Leave("general", id.SessionID, old.ID()) {
		t.Error("closing the replaced connection must not remove the session")
	}
	if got := f.registry.MemberCount("general"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
}

func TestSend_GeneralScenario(t *testing.T) {
	f := newFixture(t)
	a := &recordingConn{id: 1}
	b := &recordingConn{id: 2}
	outsider := &recordingConn{id: 3}
	_, _ = f.b.Join("general", identity("A"), a)
	_, _ = f.b.Join("general", identity("B"), b)
	_, _ = f.b.Join("veterans", identity("C"), outsider)

	msg, err := f.b.Send(context.Background(), "general", identity("A"), "  hello <b>all</b>  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Content != "hello all" || msg.IsFlagged {
		t.Errorf("message = %+v", msg)
	}

	for name, c := range map[string]*recordingConn{"A": a, "B": b} {
		got := c.ofType(models.EventNewMessage)
		if len(got) != 1 {
			t.Fatalf("%s received %d messages, want 1", name, len(got))
		}
		p := got[0].Data.(models.NewMessagePayload)
		if p.ID != msg.ID || p.DisplayName != "A" || p.Message != "hello all" {
			t.Errorf("%s payload = %+v", name, p)
		}
	}
	if got := outsider.ofType(models.EventNewMessage); len(got) != 0 {
		t.Errorf("non-member received %d messages", len(got))
	}
}

func TestSend_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name    string
		room    string
		content string
		want    error
	}{
		{"empty", "general", "", models.ErrValidation},
		{"whitespace", "general", "   \n\t ", models.ErrValidation},
		{"markup only", "general", "<script></script>", models.ErrValidation},
		{"too long", "general", strings.Repeat("x", 501), models.ErrValidation},
		{"unknown room", "lounge", "hi", models.ErrInvalidRoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.b.Send(context.Background(), tt.room, identity("A"), tt.content)
			if !errors.Is(err, tt.want) {
				t.Errorf("Send = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.b.Send(context.Background(), "general", identity("A"), strings.Repeat("é", 500)); err != nil {
		t.Errorf("500 runes should be accepted: %v", err)
	}
}

func TestSend_PerSenderOrdering(t *testing.T) {
	f := newFixture(t)
	conns := []*recordingConn{{id: 1}, {id: 2}, {id: 3}}
	for i, c := range conns {
		_, _ = f.b.Join("general", identity(string(rune('A'+i))), c)
	}

	const n = 50
	var wg sync.WaitGroup
	sent := make([][]string, len(conns))
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < n; j++ {
				msg, err := f.b.Send(context.Background(), "general", identity(string(rune('A'+i))), "msg")
				if err != nil {
					t.Errorf("Send: %v", err)
					return
				}
				sent[i] = append(sent[i], msg.ID)
			}
		}(i)
	}
	wg.Wait()

	var reference []string
	for ci, c := range conns {
		got := c.ofType(models.EventNewMessage)
		if len(got) != n*len(conns) {
			t.Fatalf("conn %d received %d messages, want %d", ci, len(got), n*len(conns))
		}
		ids := make([]string, len(got))
		for i, e := range got {
			ids[i] = e.Data.(models.NewMessagePayload).ID
		}
		if reference == nil {
			reference = ids
		}
		for i := range ids {
			if ids[i] != reference[i] {
				t.Fatalf("conn %d saw a different order at %d", ci, i)
			}
		}
	}

	pos := make(map[string]int, len(reference))
	for i, id := range reference {
		pos[id] = i
	}
	for s, ids := range sent {
		for j := 1; j < len(ids); j++ {
			if pos[ids[j-1]] > pos[ids[j]] {
				t.Fatalf("sender %d messages delivered out of order", s)
			}
		}
	}
}

func TestSend_CrisisOncePerWindow(t *testing.T) {
	f := newFixture(t)
	a := &recordingConn{id: 1}
	b := &recordingConn{id: 2}
	_, _ = f.b.Join("general", identity("A"), a)
	_, _ = f.b.Join("general", identity("B"), b)

	msg, err := f.b.Send(context.Background(), "general", identity("A"), "I want to end my life")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !msg.IsFlagged {
		t.Error("crisis message should be flagged")
	}
	if _, err := f.b.Send(context.Background(), "general", identity("B"), "I want to kill myself"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	f.b.Wait()

	for name, c := range map[string]*recordingConn{"A": a, "B": b} {
		if got := c.ofType(models.EventCrisisResources); len(got) != 1 {
			t.Errorf("%s received %d crisis-resources, want 1", name, len(got))
		}
		if got := c.ofType(models.EventNewMessage); len(got) != 2 {
			t.Errorf("%s received %d messages, want 2", name, len(got))
		}
	}

	// The message precedes the resources it triggered.
	var order []string
	a.mu.Lock()
	for _, e := range a.events {
		if e.Type == models.EventNewMessage || e.Type == models.EventCrisisResources {
			order = append(order, e.Type)
		}
	}
	a.mu.Unlock()
	if len(order) < 2 || order[0] != models.EventNewMessage || order[1] != models.EventCrisisResources {
		t.Errorf("event order = %v", order)
	}

	if got := f.publisher.count(); got != 1 {
		t.Fatalf("safety events published = %d, want 1", got)
	}
	ev := f.publisher.events[0]
	if ev.Room != "general" || ev.MessageID != msg.ID || ev.ResourcesShown != 1 {
		t.Errorf("safety event = %+v", ev)
	}
}

func TestSend_CrisisRoomsIndependent(t *testing.T) {
	f := newFixture(t)
	g := &recordingConn{id: 1}
	v := &recordingConn{id: 2}
	_, _ = f.b.Join("general", identity("A"), g)
	_, _ = f.b.Join("veterans", identity("B"), v)

	_, _ = f.b.Send(context.Background(), "general", identity("A"), "end my life")
	_, _ = f.b.Send(context.Background(), "veterans", identity("B"), "end my life")
	f.b.Wait()

	if len(g.ofType(models.EventCrisisResources)) != 1 || len(v.ofType(models.EventCrisisResources)) != 1 {
		t.Error("each room should receive its own crisis resources")
	}
}

func TestSend_CrisisDisabled(t *testing.T) {
	reg, _ := rooms.NewRegistry([]string{"general"})
	b := New(reg, nil, nil, nil, Config{MaxMessageLength: 500})
	a := &recordingConn{id: 1}
	_, _ = b.Join("general", identity("A"), a)

	msg, err := b.Send(context.Background(), "general", identity("A"), "end my life")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.IsFlagged || len(a.ofType(models.EventCrisisResources)) != 0 {
		t.Error("disabled detection must not flag or alert")
	}
}

func TestBroadcast_SlowConsumerDoesNotBlockRoom(t *testing.T) {
	f := newFixture(t)
	slow := &recordingConn{id: 1, refuse: true}
	fast := &recordingConn{id: 2}
	_, _ = f.b.Join("general", identity("Slow"), slow)
	_, _ = f.b.Join("general", identity("Fast"), fast)

	n, err := f.b.Broadcast("general", models.Envelope{Type: models.EventNewMessage})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if n != 1 {
		t.Errorf("delivered = %d, want 1", n)
	}
	if _, err := f.b.Broadcast("lounge", models.Envelope{}); !errors.Is(err, models.ErrInvalidRoom) {
		t.Errorf("Broadcast(unknown) = %v", err)
	}
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.b.Join("general", identity("A"), &recordingConn{id: 1})

	msg, err := f.b.Send(ctx, "general", identity("A"), "hello")
	if err != nil {
		t.Fatal(err)
	}
	// Drain the queue into the store the way the worker would.
	f.persister.drain()

	if err := f.b.Report(ctx, "general", msg.ID); err != nil {
		t.Fatalf("Report: %v", err)
	}
	got, err := f.history.Recent(ctx, "general", 10)
	if err != nil || len(got) != 1 || !got[0].IsFlagged {
		t.Errorf("history after report = %+v, %v", got, err)
	}

	if err := f.b.Report(ctx, "general", "0-deadbeef"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Report(unknown id) = %v, want ErrValidation", err)
	}
	if err := f.b.Report(ctx, "lounge", msg.ID); !errors.Is(err, models.ErrInvalidRoom) {
		t.Errorf("Report(unknown room) = %v, want ErrInvalidRoom", err)
	}
}
