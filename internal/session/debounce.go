// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package session

import (
	"sync"
	"time"
)

// DefaultDebounce is the member count coalescing window.
const DefaultDebounce = 250 * time.Millisecond

// Debouncer coalesces member counts. The first Update in a quiet period
// opens a window; when it closes, emit receives the latest value seen.
type Debouncer struct {
	window time.Duration
	emit   func(int)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64 // bumped by Cancel so an in-flight fire is dropped
	latest  int
	stopped bool
}

// NewDebouncer creates a debouncer. A non-positive window emits every
// update immediately.
func NewDebouncer(window time.Duration, emit func(int)) *Debouncer {
	return &Debouncer{window: window, emit: emit}
}

// Update records count.
func (d *Debouncer) Update(count int) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.window <= 0 {
		d.mu.Unlock()
		d.emit(count)
		return
	}
	d.latest = count
	if d.timer == nil {
		seq := d.seq
		d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })
	}
	d.mu.Unlock()
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.stopped {
		d.mu.Unlock()
		return
	}
	count := d.latest
	d.mu.Unlock()
	d.emit(count)
}

// Cancel discards any pending value. Later updates open a new window.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.cancelLocked()
	d.mu.Unlock()
}

// Stop discards any pending value. Later updates are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.cancelLocked()
	d.mu.Unlock()
}

func (d *Debouncer) cancelLocked() {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
