// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

// Package validation provides boundary validation and sanitization for
// inbound chat payloads and HTTP parameters.
//
// Struct validation uses a singleton go-playground/validator instance with
// custom tags (notblank, printable, roomname). Failures convert to the
// VALIDATION_ERROR shape shared by the WebSocket error event and the HTTP API.
//
// Text sanitization uses bluemonday's strict policy: chat content and display
// names are plain text, so all markup is removed before a message is built.
package validation
