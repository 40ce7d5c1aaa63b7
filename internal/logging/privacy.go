// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package logging

import (
	"strings"
	"unicode"
)

// MaskSessionID hides most of an anonymous session ID so log lines can be
// correlated without exposing the identifier itself.
// Example: "anon_k2j3h4g5f6d7" -> "anon...f6d7"
func MaskSessionID(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	if len(sessionID) <= 12 {
		return "***"
	}
	return sessionID[:4] + "..." + sessionID[len(sessionID)-4:]
}

// SafeValue neutralizes control characters in user-controlled strings before
// they reach a log line and truncates the result to maxLen bytes.
func SafeValue(s string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if maxLen > 0 && len(out) > maxLen {
		return out[:maxLen] + "..."
	}
	return out
}
