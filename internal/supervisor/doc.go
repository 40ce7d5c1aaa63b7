// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package supervisor provides process supervision for the chat server using suture v4.

The tree groups long-running services into three layers so a restart in one
does not disturb the others:

	RootSupervisor ("haven")
	├── DataSupervisor ("data-layer")
	│   └── PersisterService ("history-persister")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService ("websocket-hub")
	│   └── EmbeddedNATSService ("nats-server", if nats.enabled and nats.embedded)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService ("http-server")

Supervisor events (restarts, backoff, timeouts) are logged through sutureslog
into the zerolog-backed slog handler from internal/logging:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewPersisterService(persister))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

Canceling ctx stops every service. Services that do not return within the
shutdown timeout are listed by UnstoppedServiceReport.
*/
package supervisor
