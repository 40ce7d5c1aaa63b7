// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

// Package testinfra provides container-backed infrastructure for integration
// tests, built on testcontainers-go.
//
// # Redis Container
//
//	func TestRedisStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc)
//
//	    s, err := store.OpenRedis(&config.RedisConfig{Addr: rc.Addr}, 100)
//	    // ...
//	}
//
// These tests require Docker and run only with the integration build tag:
//
//	go test -tags integration ./internal/store/...
//
// They are skipped when Docker is unavailable.
package testinfra
