// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package models

import "time"

// APIResponse is the wrapper used by every HTTP endpoint.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"room": "general", "messages": [...]},
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "error": {"code": "VALIDATION_ERROR", "message": "sessionId is required"},
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing and degradation info.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`

	// Degraded is set when the history store could not be read and the
	// response fell back to an empty result.
	Degraded bool `json:"degraded,omitempty"`
}

// APIError is the error body of an APIResponse.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RoomHistory is the data of the history endpoint. Messages are in send order.
type RoomHistory struct {
	Room     string              `json:"room"`
	Messages []NewMessagePayload `json:"messages"`
}

// RoomSummary is one entry of the rooms endpoint.
type RoomSummary struct {
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}
