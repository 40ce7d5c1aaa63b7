// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/havenchat/haven/internal/logging"
)

// NATSServer matches *eventprocessor.EmbeddedServer. The server is already
// running when it is handed to the service.
type NATSServer interface {
	ClientURL() string
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService owns an embedded NATS server: it watches it while the
// tree runs and shuts it down when the tree stops.
type EmbeddedNATSService struct {
	server          NATSServer
	checkInterval   time.Duration
	shutdownTimeout time.Duration
	name            string
}

// NewEmbeddedNATSService creates the wrapper.
func NewEmbeddedNATSService(server NATSServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		checkInterval:   5 * time.Second,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
//
// An embedded server that stops on its own cannot be restarted in place, so
// that case returns suture.ErrDoNotRestart; the publisher keeps buffering
// and safety events degrade to log-only.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	logging.Info().Str("url", s.server.ClientURL()).Msg("embedded NATS server running")

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("nats server shutdown failed: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.server.IsRunning() {
				logging.Error().Msg("embedded NATS server stopped unexpectedly")
				return fmt.Errorf("embedded NATS server stopped: %w", suture.ErrDoNotRestart)
			}
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *EmbeddedNATSService) String() string {
	return s.name
}
