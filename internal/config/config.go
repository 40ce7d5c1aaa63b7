// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Chat      ChatConfig      `koanf:"chat"`
	Crisis    CrisisConfig    `koanf:"crisis"`
	Store     StoreConfig     `koanf:"store"`
	Redis     RedisConfig     `koanf:"redis"`
	NATS      NATSConfig      `koanf:"nats"`
	Security  SecurityConfig  `koanf:"security"`
	Presence  PresenceConfig  `koanf:"presence"`
	Reconnect ReconnectConfig `koanf:"reconnect"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ChatConfig holds room catalog, identity and message limits.
type ChatConfig struct {
	// Rooms is the enumerated topic catalog. Rooms are not user-createable.
	Rooms []string `koanf:"rooms"`

	// SessionPrefix is the literal prefix every anonymous session ID must carry.
	SessionPrefix string `koanf:"session_prefix"`

	// SessionMinLength is the minimum total length of a session ID, prefix included.
	SessionMinLength int `koanf:"session_min_length"`

	MaxMessageLength int `koanf:"max_message_length"`
	MaxNameLength    int `koanf:"max_name_length"`
	HistoryLimit     int `koanf:"history_limit"`
	HistoryMax       int `koanf:"history_max"`

	// SendQueueSize bounds each connection's outbound queue.
	SendQueueSize int `koanf:"send_queue_size"`

	// MessageRate and MessageBurst bound how fast one connection may send.
	MessageRate  float64 `koanf:"message_rate"`
	MessageBurst int     `koanf:"message_burst"`
}

// CrisisResource is one hotline or support contact shown by the crisis side channel.
type CrisisResource struct {
	Name    string `koanf:"name" json:"name"`
	Contact string `koanf:"contact" json:"contact"`
	URL     string `koanf:"url" json:"url,omitempty"`
}

// CrisisConfig holds crisis keyword detection settings.
type CrisisConfig struct {
	Enabled   bool             `koanf:"enabled"`
	Phrases   []string         `koanf:"phrases"`
	Cooldown  time.Duration    `koanf:"cooldown"`
	Message   string           `koanf:"message"`
	Resources []CrisisResource `koanf:"resources"`
}

// StoreConfig selects and tunes the message history backend.
type StoreConfig struct {
	// Backend is one of badger, pebble, redis, memory.
	Backend      string        `koanf:"backend"`
	Path         string        `koanf:"path"`
	SyncWrites   bool          `koanf:"sync_writes"`
	QueueSize    int           `koanf:"queue_size"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// MaxPerRoom caps retained history per room for the redis and memory
	// backends. Badger and pebble keep everything.
	MaxPerRoom int64 `koanf:"max_per_room"`

	// BreakerFailures consecutive failures open the store circuit breaker
	// for BreakerTimeout.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// RedisConfig holds settings for the redis history backend.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// NATSConfig holds safety event publishing settings.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Embedded      bool          `koanf:"embedded"`
	URL           string        `koanf:"url"`
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// SecurityConfig holds CORS, origin and HTTP rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	AllowedWSOrigins  []string      `koanf:"allowed_ws_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// PresenceConfig holds the client-side member count debounce window.
type PresenceConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// ReconnectConfig holds client reconnect backoff settings.
type ReconnectConfig struct {
	Initial     time.Duration `koanf:"initial"`
	Max         time.Duration `koanf:"max"`
	Multiplier  float64       `koanf:"multiplier"`
	MaxAttempts int           `koanf:"max_attempts"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
