// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package session

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/validation"
)

// Identity defaults.
const (
	DefaultPrefix        = "anon_"
	DefaultMinLength     = 16
	DefaultMaxNameLength = 32
	maxSessionIDLength   = 128
)

// IdentityPolicy is the shape every session ID and display name must have.
type IdentityPolicy struct {
	Prefix        string
	MinLength     int
	MaxNameLength int
}

// DefaultIdentityPolicy returns the built-in policy.
func DefaultIdentityPolicy() IdentityPolicy {
	return IdentityPolicy{Prefix: DefaultPrefix, MinLength: DefaultMinLength, MaxNameLength: DefaultMaxNameLength}
}

// IdentityPolicyFrom builds the policy from chat configuration.
func IdentityPolicyFrom(cfg *config.ChatConfig) IdentityPolicy {
	return IdentityPolicy{Prefix: cfg.SessionPrefix, MinLength: cfg.SessionMinLength, MaxNameLength: cfg.MaxNameLength}
}

func invalidSession(reason string) error {
	return models.NewError(models.ErrValidation, "Invalid session ID: "+reason+".", nil)
}

// ValidateSessionID reports whether id has the policy's shape.
func (p IdentityPolicy) ValidateSessionID(id string) error {
	switch {
	case !strings.HasPrefix(id, p.Prefix):
		return invalidSession(fmt.Sprintf("must start with %q", p.Prefix))
	case len(id) < p.MinLength:
		return invalidSession(fmt.Sprintf("must be at least %d characters", p.MinLength))
	case len(id) > maxSessionIDLength:
		return invalidSession(fmt.Sprintf("must be at most %d characters", maxSessionIDLength))
	}
	for _, r := range id[len(p.Prefix):] {
		if !isSessionRune(r) {
			return invalidSession("contains unsupported characters")
		}
	}
	return nil
}

func isSessionRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}

// Normalize validates sessionID and sanitizes displayName into an identity.
func (p IdentityPolicy) Normalize(sessionID, displayName string) (models.AnonymousIdentity, error) {
	if err := p.ValidateSessionID(sessionID); err != nil {
		return models.AnonymousIdentity{}, err
	}
	name := validation.SanitizeName(displayName)
	if name == "" {
		return models.AnonymousIdentity{}, models.NewError(models.ErrValidation, "Display name cannot be empty.", nil)
	}
	if p.MaxNameLength > 0 && utf8.RuneCountInString(name) > p.MaxNameLength {
		return models.AnonymousIdentity{}, models.NewError(models.ErrValidation,
			fmt.Sprintf("Display name must be at most %d characters.", p.MaxNameLength), nil)
	}
	return models.AnonymousIdentity{SessionID: sessionID, DisplayName: name}, nil
}

// NewSessionID returns a fresh random session ID that satisfies p.
func (p IdentityPolicy) NewSessionID() string {
	id := p.Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	for len(id) < p.MinLength {
		id += strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return id
}
