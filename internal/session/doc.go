// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package session holds everything about an anonymous chat session that is not
server-side fan-out.

Identity:

IdentityPolicy decides which session IDs are acceptable ("anon_" followed by
URL-safe characters, 16 characters minimum by default) and NewSessionID
generates one. The server validates every join with the same policy.

Connection lifecycle:

Transition is a pure function from (Status, Event) to the next Status and
the Effects a driver must perform:

	Disconnected --Dial--> Connecting --HandshakeOK--> Connected --JoinOK--> Joined
	                            |                          |                  |
	                     HandshakeFailed             TransportLost      TransportLost
	                            v                          v                  v
	                        Reconnecting <-----------------+------------------+
	                            |
	                  attempts > MaxAttempts
	                            v
	                          Failed --ManualRetry--> Connecting

UserLeave from any state returns to Disconnected and never reconnects.

Client drives the machine over a gorilla/websocket connection, re-joining
the room after every reconnect. Member counts received from the server pass
through a Debouncer so bursts of joins and leaves produce one update.
*/
package session
