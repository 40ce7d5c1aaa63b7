// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package session

import (
	"math"
	"time"

	"github.com/havenchat/haven/internal/config"
)

// Policy controls reconnect backoff.
type Policy struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	MaxAttempts int
}

// DefaultPolicy returns 1s doubling to 30s over at most 5 attempts.
func DefaultPolicy() Policy {
	return Policy{Initial: time.Second, Max: 30 * time.Second, Multiplier: 2, MaxAttempts: 5}
}

// PolicyFrom builds a Policy from reconnect configuration.
func PolicyFrom(cfg *config.ReconnectConfig) Policy {
	return Policy{Initial: cfg.Initial, Max: cfg.Max, Multiplier: cfg.Multiplier, MaxAttempts: cfg.MaxAttempts}
}

// Backoff returns the delay before the given 1-based attempt:
// Initial * Multiplier^(attempt-1), capped at Max.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.Initial) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.Max > 0 && (d > float64(p.Max) || math.IsInf(d, 1)) {
		return p.Max
	}
	return time.Duration(d)
}
