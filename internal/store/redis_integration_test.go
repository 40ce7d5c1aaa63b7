// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/testinfra"
)

func TestRedisStore_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	rc, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, rc)

	n := 0
	runStoreSuite(t, func(t *testing.T) Store {
		n++
		s, err := OpenRedis(&config.RedisConfig{
			Addr:      rc.Addr,
			KeyPrefix: fmt.Sprintf("haven-test-%d", n),
		}, 100)
		if err != nil {
			t.Fatalf("OpenRedis: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestRedisStore_Trim(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	rc, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, rc)

	s, err := OpenRedis(&config.RedisConfig{Addr: rc.Addr, KeyPrefix: "trim"}, 3)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, testMessage("general", i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.Recent(ctx, "general", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 || got[0].Content != "message 2" {
		t.Errorf("trimmed history = %+v", got)
	}
	if n, _ := s.client.HLen(ctx, s.hashKey("general")).Result(); n != 3 {
		t.Errorf("hash holds %d entries, want 3", n)
	}
}
