// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package models defines the data structures shared across Haven.

Key Components:

  - AnonymousIdentity: session-scoped handle (session ID + display name)
  - Message: a chat message as broadcast, persisted and served as history
  - Envelope / InboundEnvelope: the WebSocket event frame {"type", "data"}
  - Event payloads: one struct per client and server event
  - APIResponse: the HTTP response wrapper
  - Error taxonomy: ErrInvalidRoom, ErrValidation, ErrTransport, ErrPersistence

Wire Events:

Client to server:

	join-room        {room, sessionId, displayName}
	send-message     {room, message}
	leave-room       {room}
	report-message   {room, messageId}

Server to client:

	joined-successfully   {memberCount}
	new-message           {id, displayName, message, timestamp, isFlagged}
	member-count-updated  {memberCount}
	user-left             {message, memberCount}
	crisis-resources      {message, resources}
	message-reported      {id}
	error                 {message, code}
*/
package models
