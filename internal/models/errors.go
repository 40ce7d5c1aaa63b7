// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package models

import "errors"

// Error kinds. Use errors.Is to classify.
var (
	// ErrInvalidRoom means the room is not in the catalog. No membership changes.
	ErrInvalidRoom = errors.New("invalid room")

	// ErrValidation means a malformed identity or message. Nothing is broadcast or stored.
	ErrValidation = errors.New("validation failed")

	// ErrTransport means the connection failed. Membership is removed at once.
	ErrTransport = errors.New("transport failure")

	// ErrPersistence means the history store is unavailable. It is logged, never shown to users.
	ErrPersistence = errors.New("persistence unavailable")

	// ErrNotJoined means the connection sent to a room it has not joined.
	ErrNotJoined = errors.New("not joined to room")

	// ErrRateLimited means the connection is sending faster than allowed.
	ErrRateLimited = errors.New("rate limited")

	// ErrBadRequest means the frame could not be decoded or named an unknown event.
	ErrBadRequest = errors.New("bad request")
)

// Wire error codes.
const (
	CodeInvalidRoom = "INVALID_ROOM"
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotJoined   = "NOT_JOINED"
	CodeRateLimited = "RATE_LIMITED"
	CodeBadRequest  = "BAD_REQUEST"
	CodeTransport   = "TRANSPORT_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"
	CodeInternal    = "INTERNAL_ERROR"
)

// ChatError pairs an error kind with the message shown to the requesting
// connection.
type ChatError struct {
	Kind    error
	Message string
	Err     error
}

// NewError builds a ChatError. cause may be nil.
func NewError(kind error, message string, cause error) *ChatError {
	return &ChatError{Kind: kind, Message: message, Err: cause}
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ChatError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// ErrorCode maps err to its wire code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRoom):
		return CodeInvalidRoom
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotJoined):
		return CodeNotJoined
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	case errors.Is(err, ErrTransport):
		return CodeTransport
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeInternal
	}
}

// UserMessage returns the text safe to show the requesting connection.
func UserMessage(err error) string {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Message
	}
	switch ErrorCode(err) {
	case CodeInvalidRoom:
		return "That room does not exist."
	case CodeValidation:
		return "The request was not valid."
	case CodeNotJoined:
		return "Join the room before sending messages."
	case CodeRateLimited:
		return "You are sending messages too quickly."
	case CodeBadRequest:
		return "The request could not be understood."
	default:
		return "Something went wrong. Please try again."
	}
}

// ErrorEnvelope builds the error event for err.
func ErrorEnvelope(err error) Envelope {
	return Envelope{Type: EventError, Data: ErrorPayload{Message: UserMessage(err), Code: ErrorCode(err)}}
}
