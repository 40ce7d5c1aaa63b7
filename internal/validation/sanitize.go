// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag. Chat is plain text; clients render it as text.
var textPolicy = bluemonday.StrictPolicy()

// maxEntityPasses bounds decoding of nested entities such as "&amp;lt;".
const maxEntityPasses = 4

// SanitizeText removes markup and control characters (newline and tab are
// kept) and trims surrounding whitespace. Entities are decoded before the
// markup pass, so escaped tags are stripped like literal ones.
func SanitizeText(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(decodeEntities(s)))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func decodeEntities(s string) string {
	for range maxEntityPasses {
		u := html.UnescapeString(s)
		if u == s {
			break
		}
		s = u
	}
	return s
}

// SanitizeName is SanitizeText for single-line labels: newlines and tabs
// collapse to single spaces.
func SanitizeName(s string) string {
	return strings.Join(strings.Fields(SanitizeText(s)), " ")
}
