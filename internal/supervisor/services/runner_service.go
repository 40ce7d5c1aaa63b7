// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package services

import (
	"context"
)

// ContextRunner is a component whose run loop already returns when ctx is
// canceled. Satisfied by *websocket.Hub and *broadcast.Persister.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService names runner for supervisor logs.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewWebSocketHubService wraps the hub's register/unregister loop.
//
//	tree.AddMessagingService(services.NewWebSocketHubService(hub))
func NewWebSocketHubService(hub ContextRunner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewPersisterService wraps the history write queue. On shutdown the
// persister drains what is already queued before returning.
func NewPersisterService(persister ContextRunner) *RunnerService {
	return NewRunnerService("history-persister", persister)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *RunnerService) String() string {
	return s.name
}
