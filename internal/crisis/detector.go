// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package crisis

import (
	"errors"
	"fmt"
)

// ErrNoPhrases is returned when a detector is built without any usable phrase.
var ErrNoPhrases = errors.New("crisis phrase list is empty")

// Result is the outcome of a detection. Phrase is for internal use only.
type Result struct {
	Matched bool
	Phrase  string
}

// Detector matches chat content against the crisis phrase list.
type Detector struct {
	m *matcher
}

// NewDetector builds a detector. Phrases are normalized the same way as
// message content; blank entries are ignored.
func NewDetector(phrases []string) (*Detector, error) {
	m := newMatcher(phrases)
	if len(m.patterns) == 0 {
		return nil, ErrNoPhrases
	}
	return &Detector{m: m}, nil
}

// Detect reports whether content contains a crisis phrase. A panic inside the
// matcher is converted to an error so callers can log it and move on.
func (d *Detector) Detect(content string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("crisis detector panic: %v", r)
		}
	}()

	if d == nil || d.m == nil {
		return Result{}, ErrNoPhrases
	}
	if m, ok := d.m.first(content); ok {
		return Result{Matched: true, Phrase: m.phrase}, nil
	}
	return Result{}, nil
}

// PhraseCount returns the number of distinct normalized phrases.
func (d *Detector) PhraseCount() int {
	return len(d.m.patterns)
}
