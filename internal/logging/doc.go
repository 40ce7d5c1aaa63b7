// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

// Package logging provides centralized zerolog-based structured logging for Haven.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from main via Init
//   - JSON output for production and console output for development
//   - Context-aware loggers carrying request, correlation and connection IDs
//   - An slog adapter so suture and watermill log through zerolog
//   - Privacy helpers for anonymous identifiers and user-controlled strings
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("room", room).Int("members", n).Msg("member joined")
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("history degraded")
//
// # Privacy
//
// Chat content is never logged. Session IDs are logged only through
// MaskSessionID, and display names only through SafeValue.
//
// # Configuration
//
// Environment variables (mapped by internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
package logging
