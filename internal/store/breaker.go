// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/models"
)

// BreakerStore guards a backend with a circuit breaker and records metrics.
// Errors other than ErrNotFound are wrapped with models.ErrPersistence.
type BreakerStore struct {
	inner   Store
	backend string
	cb      *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps inner. failures consecutive errors open the breaker
// for timeout; one probe request is allowed while half-open.
func NewBreakerStore(inner Store, backend string, failures uint32, timeout time.Duration) *BreakerStore {
	name := "store-" + backend
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("history store circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return &BreakerStore{
		inner:   inner,
		backend: backend,
		cb:      gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Backend returns the backend name.
func (b *BreakerStore) Backend() string {
	return b.backend
}

// State returns the breaker state: "closed", "half-open" or "open".
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

// Ready reports whether the breaker currently admits requests.
func (b *BreakerStore) Ready() bool {
	return b.cb.State() != gobreaker.StateOpen
}

func (b *BreakerStore) execute(op string, fn func() (any, error)) (any, error) {
	start := time.Now()
	res, err := b.cb.Execute(fn)
	metrics.RecordStoreOperation(b.backend, op, time.Since(start), err)
	if err == nil || errors.Is(err, ErrNotFound) {
		return res, err
	}
	return nil, fmt.Errorf("%w: %s %s: %w", models.ErrPersistence, b.backend, op, err)
}

// Append implements Store.
func (b *BreakerStore) Append(ctx context.Context, msg *models.Message) error {
	_, err := b.execute("append", func() (any, error) {
		return nil, b.inner.Append(ctx, msg)
	})
	return err
}

// Recent implements Store.
func (b *BreakerStore) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	res, err := b.execute("recent", func() (any, error) {
		return b.inner.Recent(ctx, room, limit)
	})
	if err != nil {
		return nil, err
	}
	msgs, _ := res.([]models.Message)
	return msgs, nil
}

// Flag implements Store.
func (b *BreakerStore) Flag(ctx context.Context, room, id string) error {
	_, err := b.execute("flag", func() (any, error) {
		return nil, b.inner.Flag(ctx, room, id)
	})
	return err
}

// Close closes the backend.
func (b *BreakerStore) Close() error {
	return b.inner.Close()
}
