// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/havenchat/haven/internal/api"
	"github.com/havenchat/haven/internal/broadcast"
	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/crisis"
	"github.com/havenchat/haven/internal/eventprocessor"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/rooms"
	"github.com/havenchat/haven/internal/session"
	"github.com/havenchat/haven/internal/store"
	"github.com/havenchat/haven/internal/supervisor"
	"github.com/havenchat/haven/internal/supervisor/services"
	"github.com/havenchat/haven/internal/websocket"
)

// app holds the wired components of one server process.
type app struct {
	cfg         *config.Config
	store       *store.BreakerStore
	persister   *broadcast.Persister
	publisher   eventprocessor.SafetyPublisher
	nats        *eventprocessor.EmbeddedServer
	broadcaster *broadcast.Broadcaster
	hub         *websocket.Hub
	handler     http.Handler
	server      *http.Server
	tree        *supervisor.SupervisorTree
}

//nolint:gocyclo // sequential setup steps
func newApp(cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
			a = nil
		}
	}()

	a.store, err = store.Open(cfg)
	if err != nil {
		return a, fmt.Errorf("failed to open history store: %w", err)
	}
	a.persister = broadcast.NewPersister(a.store, cfg.Store.QueueSize, cfg.Store.WriteTimeout)
	logging.Info().Str("backend", a.store.Backend()).Msg("History store opened")

	side, err := crisis.NewSideChannel(&cfg.Crisis)
	if err != nil {
		return a, fmt.Errorf("failed to build crisis side channel: %w", err)
	}

	a.publisher, err = a.initSafetyPublisher()
	if err != nil {
		return a, err
	}

	registry, err := rooms.NewRegistry(cfg.Chat.Rooms)
	if err != nil {
		return a, fmt.Errorf("failed to build room registry: %w", err)
	}

	a.broadcaster = broadcast.New(registry, side, a.persister, a.publisher, broadcast.Config{
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	})
	identity := session.IdentityPolicyFrom(&cfg.Chat)
	a.hub = websocket.NewHub(registry, a.broadcaster, identity, websocket.LimitsFrom(&cfg.Chat))

	handler := api.NewHandler(registry, a.persister, a.store, &cfg.Chat)
	router := api.NewRouter(handler,
		websocket.NewHandler(a.hub, cfg.Security.AllowedWSOrigins),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
		identity,
	)
	a.handler = router.SetupChi()
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	a.tree, err = supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return a, fmt.Errorf("failed to create supervisor tree: %w", err)
	}
	a.tree.AddDataService(services.NewPersisterService(a.persister))
	a.tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	if a.nats != nil {
		a.tree.AddMessagingService(services.NewEmbeddedNATSService(a.nats, cfg.Server.ShutdownTimeout))
	}
	a.tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout))

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	return a, nil
}

// initSafetyPublisher returns a no-op publisher unless NATS is enabled.
func (a *app) initSafetyPublisher() (eventprocessor.SafetyPublisher, error) {
	cfg := &a.cfg.NATS
	if !cfg.Enabled {
		logging.Info().Msg("NATS disabled, safety events are logged only")
		return eventprocessor.NoopPublisher{}, nil
	}

	url := ""
	if cfg.Embedded {
		ns, err := eventprocessor.NewEmbeddedServer(&eventprocessor.ServerConfig{
			Host: cfg.Host,
			Port: cfg.Port,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded NATS server: %w", err)
		}
		a.nats = ns
		url = ns.ClientURL()
	}

	pub, err := eventprocessor.NewPublisher(
		eventprocessor.PublisherConfigFrom(cfg, url),
		watermill.NewSlogLogger(logging.NewSlogLogger()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create safety publisher: %w", err)
	}
	logging.Info().
		Str("subject_prefix", cfg.SubjectPrefix).
		Bool("embedded", cfg.Embedded).
		Msg("Safety event publisher ready")
	return pub, nil
}

// run serves until ctx is canceled and the tree has stopped.
func (a *app) run(ctx context.Context) {
	logging.Info().Str("addr", a.server.Addr).Msg("Starting supervisor tree")
	errCh := a.tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := a.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Haven stopped gracefully")
}

// close releases what newApp acquired. It is safe on a partially built app.
func (a *app) close() {
	if a.broadcaster != nil {
		a.broadcaster.Wait()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing safety publisher")
		}
	}
	if a.nats != nil && a.nats.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.nats.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error stopping embedded NATS server")
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing history store")
		}
	}
}
