// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/havenchat/haven/internal/logging"
)

// Validate checks that the configuration is complete and within bounds.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateChat,
		c.validateCrisis,
		c.validateStore,
		c.validateNATS,
		c.validateSecurity,
		c.validateReconnect,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// roomNamePattern keeps room names URL- and subject-safe.
var roomNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,31}$`)

func (c *Config) validateChat() error {
	if len(c.Chat.Rooms) == 0 {
		return fmt.Errorf("CHAT_ROOMS must name at least one room")
	}
	seen := make(map[string]bool, len(c.Chat.Rooms))
	for _, room := range c.Chat.Rooms {
		if !roomNamePattern.MatchString(room) {
			return fmt.Errorf("room name %q must be lowercase alphanumeric with dashes (max 32)", room)
		}
		if seen[room] {
			return fmt.Errorf("room %q is listed twice", room)
		}
		seen[room] = true
	}

	if strings.TrimSpace(c.Chat.SessionPrefix) == "" {
		return fmt.Errorf("SESSION_PREFIX must not be empty")
	}
	if c.Chat.SessionMinLength <= len(c.Chat.SessionPrefix) {
		return fmt.Errorf("SESSION_MIN_LENGTH must exceed the prefix length (%d)", len(c.Chat.SessionPrefix))
	}

	switch {
	case c.Chat.MaxMessageLength < 1:
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be positive")
	case c.Chat.MaxNameLength < 1:
		return fmt.Errorf("MAX_NAME_LENGTH must be positive")
	case c.Chat.HistoryLimit < 1 || c.Chat.HistoryLimit > c.Chat.HistoryMax:
		return fmt.Errorf("HISTORY_LIMIT must be between 1 and HISTORY_MAX (%d)", c.Chat.HistoryMax)
	case c.Chat.SendQueueSize < 1:
		return fmt.Errorf("SEND_QUEUE_SIZE must be positive")
	case c.Chat.MessageRate <= 0 || c.Chat.MessageBurst < 1:
		return fmt.Errorf("CHAT_MESSAGE_RATE and CHAT_MESSAGE_BURST must be positive")
	}
	return nil
}

func (c *Config) validateCrisis() error {
	if !c.Crisis.Enabled {
		return nil
	}
	phrases := 0
	for _, p := range c.Crisis.Phrases {
		if strings.TrimSpace(p) != "" {
			phrases++
		}
	}
	if phrases == 0 {
		return fmt.Errorf("CRISIS_PHRASES must contain at least one phrase when crisis detection is enabled")
	}
	if c.Crisis.Cooldown < time.Second {
		return fmt.Errorf("CRISIS_COOLDOWN must be at least 1s")
	}
	if len(c.Crisis.Resources) == 0 {
		return fmt.Errorf("crisis.resources must list at least one resource")
	}
	return nil
}

var validBackends = map[string]bool{
	"badger": true,
	"pebble": true,
	"redis":  true,
	"memory": true,
}

func (c *Config) validateStore() error {
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("STORE_BACKEND must be one of: badger, pebble, redis, memory")
	}
	if (c.Store.Backend == "badger" || c.Store.Backend == "pebble") && c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required for the %s backend", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis backend")
	}
	if c.Store.QueueSize < 1 {
		return fmt.Errorf("STORE_QUEUE_SIZE must be positive")
	}
	if c.Store.BreakerFailures < 1 {
		return fmt.Errorf("STORE_BREAKER_FAILURES must be positive")
	}
	if c.Store.MaxPerRoom < 1 && (c.Store.Backend == "redis" || c.Store.Backend == "memory") {
		return fmt.Errorf("STORE_MAX_PER_ROOM must be positive for the %s backend", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.SubjectPrefix == "" || strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must be a non-empty literal subject token")
	}
	if !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when the embedded server is disabled")
	}
	if c.NATS.Embedded && (c.NATS.Port < 1 || c.NATS.Port > 65535) {
		return fmt.Errorf("NATS_PORT must be between 1 and 65535")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS=* is not allowed in production")
			}
		}
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateReconnect() error {
	r := c.Reconnect
	if r.Initial <= 0 || r.Max < r.Initial {
		return fmt.Errorf("reconnect.initial must be positive and not exceed reconnect.max")
	}
	if r.Multiplier < 1 {
		return fmt.Errorf("reconnect.multiplier must be at least 1")
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("reconnect.max_attempts must be positive")
	}
	return nil
}
