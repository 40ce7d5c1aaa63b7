// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package models

import "github.com/goccy/go-json"

// Client to server event types.
const (
	EventJoinRoom      = "join-room"
	EventSendMessage   = "send-message"
	EventLeaveRoom     = "leave-room"
	EventReportMessage = "report-message"
)

// Server to client event types.
const (
	EventJoined          = "joined-successfully"
	EventNewMessage      = "new-message"
	EventMemberCount     = "member-count-updated"
	EventUserLeft        = "user-left"
	EventCrisisResources = "crisis-resources"
	EventMessageReported = "message-reported"
	EventError           = "error"
)

// Envelope is an outbound WebSocket frame.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundEnvelope is an inbound WebSocket frame. Data is decoded once the
// type is known.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinRoomRequest is the data of a join-room event.
type JoinRoomRequest struct {
	Room        string `json:"room" validate:"required,roomname"`
	SessionID   string `json:"sessionId" validate:"required,max=128,printable"`
	DisplayName string `json:"displayName" validate:"required,notblank,max=64"`
}

// SendMessageRequest is the data of a send-message event. The configured
// length limit is checked after sanitizing; the tag bounds raw input.
type SendMessageRequest struct {
	Room    string `json:"room" validate:"required,roomname"`
	Message string `json:"message" validate:"required,max=4000"`
}

// LeaveRoomRequest is the data of a leave-room event.
type LeaveRoomRequest struct {
	Room string `json:"room" validate:"required,roomname"`
}

// ReportMessageRequest is the data of a report-message event.
type ReportMessageRequest struct {
	Room      string `json:"room" validate:"required,roomname"`
	MessageID string `json:"messageId" validate:"required,max=64,printable"`
}

// JoinedPayload is the data of a joined-successfully event.
type JoinedPayload struct {
	MemberCount int `json:"memberCount"`
}

// MemberCountPayload is the data of a member-count-updated event.
type MemberCountPayload struct {
	MemberCount int `json:"memberCount"`
}

// UserLeftPayload is the data of a user-left event.
type UserLeftPayload struct {
	Message     string `json:"message"`
	MemberCount int    `json:"memberCount"`
}

// CrisisResource is one support contact in a crisis-resources event.
type CrisisResource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	URL     string `json:"url,omitempty"`
}

// CrisisResourcesPayload is the data of a crisis-resources event. It never
// names the message or member that triggered it.
type CrisisResourcesPayload struct {
	Message   string           `json:"message"`
	Resources []CrisisResource `json:"resources"`
}

// MessageReportedPayload acknowledges a report-message event to the reporter.
type MessageReportedPayload struct {
	ID string `json:"id"`
}

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
