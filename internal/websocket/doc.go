// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package websocket is the server side of the chat connection lifecycle.

Key Components:

  - Hub: owns the set of live connections and their register/unregister
    lifecycle. Run it under suture with RunWithContext.
  - Client: one connection with a read pump and a write pump. It implements
    rooms.Conn, so the broadcaster delivers to it directly.
  - Handler: the GET /ws upgrade endpoint with origin checking.

Protocol:

Every frame is a JSON envelope {"type": ..., "data": {...}}.

Client to server:

	join-room       {room, sessionId, displayName}
	send-message    {room, message}
	leave-room      {room}
	report-message  {room, messageId}

Server to client:

	joined-successfully   {memberCount}
	new-message           {id, displayName, message, timestamp, isFlagged}
	member-count-updated  {memberCount}
	user-left             {message, memberCount}
	crisis-resources      {message, resources}
	message-reported      {id}
	error                 {message, code}

A connection is in at most one room; joining another room leaves the first.
Closing the socket is an implicit leave and the room is told at once.
Errors go only to the connection that caused them.

Limits:

  - Read limit: 64 KiB per frame
  - Outbound queue: chat.send_queue_size events; a full queue closes the
    connection
  - send-message rate: chat.message_rate per second with chat.message_burst
  - Keepalive: ping every 54s, 60s pong deadline
*/
package websocket
