// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package eventprocessor

import (
	"time"

	"github.com/havenchat/haven/internal/config"
)

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host       string
	Port       int // -1 picks a random free port
	MaxPayload int32
}

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL             string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultPublisherConfig returns production defaults for url.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		SubjectPrefix:   "haven",
		MaxReconnects:   -1, // Unlimited
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 1024 * 1024,
	}
}

// PublisherConfigFrom derives publisher settings from application config.
// url overrides cfg.URL when non-empty (the embedded server's client URL).
func PublisherConfigFrom(cfg *config.NATSConfig, url string) PublisherConfig {
	if url == "" {
		url = cfg.URL
	}
	pc := DefaultPublisherConfig(url)
	pc.SubjectPrefix = cfg.SubjectPrefix
	pc.MaxReconnects = cfg.MaxReconnects
	if cfg.ReconnectWait > 0 {
		pc.ReconnectWait = cfg.ReconnectWait
	}
	return pc
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time in open state before half-open
	FailureThreshold uint32        // Consecutive failures to trip
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}
