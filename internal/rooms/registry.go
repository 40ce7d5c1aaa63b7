// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package rooms

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/havenchat/haven/internal/models"
)

// Conn is the connection that owns a membership. The websocket client
// implements it; tests use a recording fake.
type Conn interface {
	// ID uniquely identifies the connection for the life of the process.
	ID() uint64

	// Deliver enqueues env without blocking. It returns false when the
	// connection could not accept it.
	Deliver(env models.Envelope) bool
}

// Member is one session's presence in a room.
type Member struct {
	SessionID   string
	DisplayName string
	Conn        Conn
	JoinedAt    time.Time
}

// PresenceKind identifies a membership change.
type PresenceKind string

const (
	PresenceJoined PresenceKind = "joined"
	PresenceLeft   PresenceKind = "left"
)

// PresenceEvent describes a membership change. Count is the member count
// immediately after the change.
type PresenceEvent struct {
	Room        string
	Kind        PresenceKind
	SessionID   string
	DisplayName string
	Count       int
}

// PresenceListener receives presence events. It must not block for long.
type PresenceListener func(PresenceEvent)

type room struct {
	mu      sync.RWMutex
	members map[string]*Member
}

// Registry holds the member set of every catalog room.
type Registry struct {
	rooms map[string]*room
	names []string

	listenerMu sync.RWMutex
	listeners  []PresenceListener

	now func() time.Time
}

// NewRegistry builds a registry for the given catalog. Names must be unique
// and non-empty.
func NewRegistry(catalog []string) (*Registry, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("room catalog is empty")
	}
	r := &Registry{
		rooms: make(map[string]*room, len(catalog)),
		names: make([]string, 0, len(catalog)),
		now:   time.Now,
	}
	for _, name := range catalog {
		if name == "" {
			return nil, fmt.Errorf("room catalog contains an empty name")
		}
		if _, dup := r.rooms[name]; dup {
			return nil, fmt.Errorf("room %q is listed twice", name)
		}
		r.rooms[name] = &room{members: make(map[string]*Member)}
		r.names = append(r.names, name)
	}
	return r, nil
}

// OnPresence registers a listener for membership changes.
func (r *Registry) OnPresence(fn PresenceListener) {
	r.listenerMu.Lock()
	r.listeners = append(r.listeners, fn)
	r.listenerMu.Unlock()
}

// Rooms returns the catalog in configured order.
func (r *Registry) Rooms() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Exists reports whether name is in the catalog.
func (r *Registry) Exists(name string) bool {
	_, ok := r.rooms[name]
	return ok
}

func (r *Registry) lookup(name string) (*room, error) {
	rm, ok := r.rooms[name]
	if !ok {
		return nil, models.NewError(models.ErrInvalidRoom, "That room does not exist.", nil)
	}
	return rm, nil
}

// Join adds sessionID to the room, or replaces its display name and owning
// connection if it is already present. It returns the member count after
// the join.
func (r *Registry) Join(roomName, sessionID, displayName string, conn Conn) (int, error) {
	rm, err := r.lookup(roomName)
	if err != nil {
		return 0, err
	}

	rm.mu.Lock()
	rm.members[sessionID] = &Member{
		SessionID:   sessionID,
		DisplayName: displayName,
		Conn:        conn,
		JoinedAt:    r.now(),
	}
	count := len(rm.members)
	rm.mu.Unlock()

	r.emit(PresenceEvent{Room: roomName, Kind: PresenceJoined, SessionID: sessionID, DisplayName: displayName, Count: count})
	return count, nil
}

// Leave removes sessionID from the room. Leaving a room one is not in is a
// no-op.
func (r *Registry) Leave(roomName, sessionID string) (int, error) {
	rm, err := r.lookup(roomName)
	if err != nil {
		return 0, err
	}

	rm.mu.Lock()
	m, ok := rm.members[sessionID]
	if ok {
		delete(rm.members, sessionID)
	}
	count := len(rm.members)
	rm.mu.Unlock()

	if ok {
		r.emit(PresenceEvent{Room: roomName, Kind: PresenceLeft, SessionID: sessionID, DisplayName: m.DisplayName, Count: count})
	}
	return count, nil
}

// LeaveConn removes sessionID only while connID still owns the membership
// and returns the member as it was when removed. A socket that closes after
// its session reconnected elsewhere leaves the newer membership untouched.
func (r *Registry) LeaveConn(roomName, sessionID string, connID uint64) (Member, int, bool) {
	rm, ok := r.rooms[roomName]
	if !ok {
		return Member{}, 0, false
	}

	rm.mu.Lock()
	m, present := rm.members[sessionID]
	removed := present && m.Conn != nil && m.Conn.ID() == connID
	if removed {
		delete(rm.members, sessionID)
	}
	count := len(rm.members)
	rm.mu.Unlock()

	if !removed {
		return Member{}, count, false
	}
	r.emit(PresenceEvent{Room: roomName, Kind: PresenceLeft, SessionID: sessionID, DisplayName: m.DisplayName, Count: count})
	return *m, count, true
}

// MemberCount returns the current member count, or 0 for an unknown room.
func (r *Registry) MemberCount(roomName string) int {
	rm, ok := r.rooms[roomName]
	if !ok {
		return 0
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}

// Members returns a snapshot of the room's members ordered by join time.
func (r *Registry) Members(roomName string) []Member {
	rm, ok := r.rooms[roomName]
	if !ok {
		return nil
	}
	rm.mu.RLock()
	out := make([]Member, 0, len(rm.members))
	for _, m := range rm.members {
		out = append(out, *m)
	}
	rm.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// IsMember reports whether sessionID is in the room through connection connID.
func (r *Registry) IsMember(roomName, sessionID string, connID uint64) bool {
	rm, ok := r.rooms[roomName]
	if !ok {
		return false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	m, ok := rm.members[sessionID]
	return ok && m.Conn != nil && m.Conn.ID() == connID
}

// Counts returns the member count of every room in catalog order.
func (r *Registry) Counts() []models.RoomSummary {
	out := make([]models.RoomSummary, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, models.RoomSummary{Name: name, MemberCount: r.MemberCount(name)})
	}
	return out
}

func (r *Registry) emit(ev PresenceEvent) {
	r.listenerMu.RLock()
	listeners := r.listeners
	r.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
