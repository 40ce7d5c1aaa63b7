// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Chat.SessionPrefix != "anon_" {
		t.Errorf("expected session prefix anon_, got %q", cfg.Chat.SessionPrefix)
	}
	if cfg.Chat.MaxMessageLength != 500 {
		t.Errorf("expected max message length 500, got %d", cfg.Chat.MaxMessageLength)
	}
	if cfg.Crisis.Cooldown != 5*time.Minute {
		t.Errorf("expected crisis cooldown 5m, got %v", cfg.Crisis.Cooldown)
	}
	if len(cfg.Chat.Rooms) != len(DefaultRooms) {
		t.Errorf("expected %d default rooms, got %d", len(DefaultRooms), len(cfg.Chat.Rooms))
	}
	if len(cfg.Crisis.Resources) == 0 {
		t.Error("expected default crisis resources")
	}
	if cfg.Store.Backend != "badger" {
		t.Errorf("expected badger backend, got %q", cfg.Store.Backend)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	path := writeConfigFile(t, `
server:
  port: 9090
chat:
  rooms: [general, family]
crisis:
  cooldown: 10m
  phrases:
    - "end my life"
store:
  backend: memory
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if strings.Join(cfg.Chat.Rooms, ",") != "general,family" {
		t.Errorf("unexpected rooms %v", cfg.Chat.Rooms)
	}
	if cfg.Crisis.Cooldown != 10*time.Minute {
		t.Errorf("expected cooldown 10m, got %v", cfg.Crisis.Cooldown)
	}
	if len(cfg.Crisis.Phrases) != 1 {
		t.Errorf("expected one phrase, got %v", cfg.Crisis.Phrases)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Store.Backend)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9090\n")
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("CHAT_ROOMS", "general, veterans ,family")
	t.Setenv("CRISIS_COOLDOWN", "90s")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if strings.Join(cfg.Chat.Rooms, ",") != "general,veterans,family" {
		t.Errorf("expected comma-separated rooms to be split, got %v", cfg.Chat.Rooms)
	}
	if cfg.Crisis.Cooldown != 90*time.Second {
		t.Errorf("expected cooldown 90s, got %v", cfg.Crisis.Cooldown)
	}
	if !cfg.NATS.Enabled {
		t.Error("expected NATS to be enabled from env")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	path := writeConfigFile(t, "store:\n  backend: cassandra\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"CRISIS_COOLDOWN", "crisis.cooldown"},
		{"STORE_BACKEND", "store.backend"},
		{"STORE_MAX_PER_ROOM", "store.max_per_room"},
		{"REDIS_MAX_PER_ROOM", ""},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigYAML(t *testing.T) {
	t.Parallel()

	out, err := Default().YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	for _, want := range []string{"session_prefix: anon_", "backend: badger", "rooms:"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected %q in rendered YAML:\n%s", want, out)
		}
	}
}
