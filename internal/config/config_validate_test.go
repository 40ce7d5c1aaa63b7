// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"no rooms", func(c *Config) { c.Chat.Rooms = nil }, "CHAT_ROOMS"},
		{"bad room name", func(c *Config) { c.Chat.Rooms = []string{"General Chat"} }, "room name"},
		{"duplicate room", func(c *Config) { c.Chat.Rooms = []string{"general", "general"} }, "twice"},
		{"empty prefix", func(c *Config) { c.Chat.SessionPrefix = "" }, "SESSION_PREFIX"},
		{"min length not above prefix", func(c *Config) { c.Chat.SessionMinLength = 5 }, "SESSION_MIN_LENGTH"},
		{"history limit above max", func(c *Config) { c.Chat.HistoryLimit = 500 }, "HISTORY_LIMIT"},
		{"zero message rate", func(c *Config) { c.Chat.MessageRate = 0 }, "CHAT_MESSAGE_RATE"},
		{"no crisis phrases", func(c *Config) { c.Crisis.Phrases = []string{" "} }, "CRISIS_PHRASES"},
		{"crisis disabled skips phrases", func(c *Config) { c.Crisis.Enabled = false; c.Crisis.Phrases = nil }, ""},
		{"short cooldown", func(c *Config) { c.Crisis.Cooldown = time.Millisecond }, "CRISIS_COOLDOWN"},
		{"no resources", func(c *Config) { c.Crisis.Resources = nil }, "resources"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }, "STORE_BACKEND"},
		{"pebble needs path", func(c *Config) { c.Store.Backend = "pebble"; c.Store.Path = "" }, "STORE_PATH"},
		{"memory needs no path", func(c *Config) { c.Store.Backend = "memory"; c.Store.Path = "" }, ""},
		{"memory needs retention cap", func(c *Config) { c.Store.Backend = "memory"; c.Store.MaxPerRoom = 0 }, "STORE_MAX_PER_ROOM"},
		{"badger ignores retention cap", func(c *Config) { c.Store.MaxPerRoom = 0 }, ""},
		{"redis needs addr", func(c *Config) { c.Store.Backend = "redis"; c.Redis.Addr = "" }, "REDIS_ADDR"},
		{"nats wildcard prefix", func(c *Config) { c.NATS.Enabled = true; c.NATS.SubjectPrefix = "haven.>" }, "NATS_SUBJECT_PREFIX"},
		{"external nats needs url", func(c *Config) { c.NATS.Enabled = true; c.NATS.Embedded = false; c.NATS.URL = "" }, "NATS_URL"},
		{"wildcard cors in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"*"}
		}, "CORS_ORIGINS"},
		{"rate limit window too long", func(c *Config) { c.Security.RateLimitWindow = 2 * time.Hour }, "RATE_LIMIT_WINDOW"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"reconnect max below initial", func(c *Config) { c.Reconnect.Max = time.Millisecond }, "reconnect.initial"},
		{"reconnect attempts", func(c *Config) { c.Reconnect.MaxAttempts = 0 }, "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
