// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/haven/config.yaml",
	"/etc/haven/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultRooms is the topic room catalog used when none is configured.
var DefaultRooms = []string{"general", "veterans", "active-duty", "family", "transition", "support"}

// DefaultCrisisPhrases is the starting phrase list for crisis detection.
// Operators are expected to review it with their safety team.
var DefaultCrisisPhrases = []string{
	"i want to end my life",
	"end my life",
	"kill myself",
	"want to die",
	"suicide",
	"suicidal",
	"end it all",
	"no reason to live",
	"better off dead",
	"hurt myself",
	"self harm",
	"can't go on",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Chat: ChatConfig{
			Rooms:            append([]string(nil), DefaultRooms...),
			SessionPrefix:    "anon_",
			SessionMinLength: 16,
			MaxMessageLength: 500,
			MaxNameLength:    32,
			HistoryLimit:     50,
			HistoryMax:       200,
			SendQueueSize:    256,
			MessageRate:      2,
			MessageBurst:     5,
		},
		Crisis: CrisisConfig{
			Enabled:  true,
			Phrases:  append([]string(nil), DefaultCrisisPhrases...),
			Cooldown: 5 * time.Minute,
			Message:  "If you or someone here is struggling, you are not alone. Confidential help is available 24/7.",
			Resources: []CrisisResource{
				{Name: "Veterans Crisis Line", Contact: "Dial 988 then press 1", URL: "https://www.veteranscrisisline.net"},
				{Name: "Veterans Crisis Line (text)", Contact: "Text 838255"},
				{Name: "Military OneSource", Contact: "800-342-9647", URL: "https://www.militaryonesource.mil"},
			},
		},
		Store: StoreConfig{
			Backend:         "badger",
			Path:            "/data/haven/history",
			SyncWrites:      false,
			QueueSize:       1024,
			WriteTimeout:    2 * time.Second,
			MaxPerRoom:      1000,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "haven",
		},
		NATS: NATSConfig{
			Enabled:       false,
			Embedded:      true,
			URL:           "nats://127.0.0.1:4222",
			Host:          "127.0.0.1",
			Port:          4222,
			SubjectPrefix: "haven",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Presence: PresenceConfig{
			Debounce: 250 * time.Millisecond,
		},
		Reconnect: ReconnectConfig{
			Initial:     time.Second,
			Max:         30 * time.Second,
			Multiplier:  2,
			MaxAttempts: 5,
		},
	}
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration in three layers:
//
//  1. Defaults: built-in values
//  2. Config file: YAML at path, CONFIG_PATH, or the first of DefaultConfigPaths
//  3. Environment variables: the explicit mapping in envTransformFunc
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	return k, nil
}

// YAML renders the configuration in the same shape the file layer accepts.
func (c *Config) YAML() ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(c, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return k.Marshal(yaml.Parser())
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"chat.rooms",
	"crisis.phrases",
	"security.cors_origins",
	"security.allowed_ws_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names to koanf paths. Unmapped
// variables are ignored so unrelated environment never leaks into config.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"chat_rooms":              "chat.rooms",
	"session_prefix":          "chat.session_prefix",
	"session_min_length":      "chat.session_min_length",
	"max_message_length":      "chat.max_message_length",
	"max_name_length":         "chat.max_name_length",
	"history_limit":           "chat.history_limit",
	"history_max":             "chat.history_max",
	"send_queue_size":         "chat.send_queue_size",
	"chat_message_rate":       "chat.message_rate",
	"chat_message_burst":      "chat.message_burst",
	"crisis_enabled":          "crisis.enabled",
	"crisis_phrases":          "crisis.phrases",
	"crisis_cooldown":         "crisis.cooldown",
	"crisis_message":          "crisis.message",
	"store_backend":           "store.backend",
	"store_path":              "store.path",
	"store_sync_writes":       "store.sync_writes",
	"store_queue_size":        "store.queue_size",
	"store_write_timeout":     "store.write_timeout",
	"store_breaker_failures":  "store.breaker_failures",
	"store_breaker_timeout":   "store.breaker_timeout",
	"store_max_per_room":      "store.max_per_room",
	"redis_addr":              "redis.addr",
	"redis_password":          "redis.password",
	"redis_db":                "redis.db",
	"redis_key_prefix":        "redis.key_prefix",
	"nats_enabled":            "nats.enabled",
	"nats_embedded":           "nats.embedded",
	"nats_url":                "nats.url",
	"nats_host":               "nats.host",
	"nats_port":               "nats.port",
	"nats_subject_prefix":     "nats.subject_prefix",
	"nats_max_reconnects":     "nats.max_reconnects",
	"nats_reconnect_wait":     "nats.reconnect_wait",
	"cors_origins":            "security.cors_origins",
	"ws_allowed_origins":      "security.allowed_ws_origins",
	"rate_limit_requests":     "security.rate_limit_reqs",
	"rate_limit_window":       "security.rate_limit_window",
	"disable_rate_limit":      "security.rate_limit_disabled",
	"presence_debounce":       "presence.debounce",
	"reconnect_initial":       "reconnect.initial",
	"reconnect_max":           "reconnect.max",
	"reconnect_multiplier":    "reconnect.multiplier",
	"reconnect_max_attempts":  "reconnect.max_attempts",
}

// envTransformFunc transforms environment variable names to koanf paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CRISIS_COOLDOWN -> crisis.cooldown
//   - STORE_BACKEND -> store.backend
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
