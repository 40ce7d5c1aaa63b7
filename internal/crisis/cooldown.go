// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package crisis

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Cooldown allows one event per room per window. Each room gets a token
// bucket of size 1 refilled once per window, so the first call for a room
// always succeeds.
type Cooldown struct {
	window time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCooldown creates a cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:   window,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow consumes the room's token if one is available at now.
func (c *Cooldown) Allow(room string, now time.Time) bool {
	c.mu.Lock()
	lim, ok := c.limiters[room]
	if !ok {
		lim = rate.NewLimiter(rate.Every(c.window), 1)
		c.limiters[room] = lim
	}
	c.mu.Unlock()
	return lim.AllowN(now, 1)
}

// Window returns the configured window.
func (c *Cooldown) Window() time.Duration {
	return c.window
}
