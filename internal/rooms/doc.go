// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

// Package rooms tracks live membership of the fixed topic room catalog.
//
// The Registry is built once from the configured catalog. Rooms cannot be
// created or removed at runtime, so the room table itself needs no lock;
// each room guards its own member map with a sync.RWMutex.
//
// Every membership change is reported to registered presence listeners as a
// PresenceEvent. Listeners run after the room lock has been released, which
// lets them read the registry (for example to snapshot members for a
// broadcast) without deadlocking.
//
// Usage:
//
//	reg, err := rooms.NewRegistry(cfg.Chat.Rooms)
//	reg.OnPresence(func(ev rooms.PresenceEvent) { ... })
//	count, err := reg.Join("general", sessionID, displayName, conn)
package rooms
