// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package broadcast fans chat events out to the members of a room.

Membership is read from the rooms.Registry at delivery time; there is no
separate subscriber list. Delivery into a room is serialized by a per-room
mutex so every member observes the same order:

	b := broadcast.New(registry, side, persister, publisher, broadcast.Config{MaxMessageLength: 500})
	msg, err := b.Send(ctx, "general", identity, "hello")

Each rooms.Conn owns a bounded outbound queue. Deliver never blocks; a
connection that cannot keep up is closed by its own Deliver and the rest of
the room is unaffected.

Message history is written by the Persister, a bounded queue drained by a
supervised worker. Fan-out never waits for it, and store failures never
reach users.
*/
package broadcast
