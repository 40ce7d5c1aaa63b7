// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package crisis

import (
	"time"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
)

// SideChannel runs detection and decides when to show resources to a room.
type SideChannel struct {
	detector *Detector
	cooldown *Cooldown
	payload  models.CrisisResourcesPayload
}

// NewSideChannel builds a side channel from configuration. It returns
// (nil, nil) when crisis detection is disabled; a nil *SideChannel detects
// nothing.
func NewSideChannel(cfg *config.CrisisConfig) (*SideChannel, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	det, err := NewDetector(cfg.Phrases)
	if err != nil {
		return nil, err
	}

	resources := make([]models.CrisisResource, 0, len(cfg.Resources))
	for _, r := range cfg.Resources {
		resources = append(resources, models.CrisisResource{Name: r.Name, Contact: r.Contact, URL: r.URL})
	}
	return &SideChannel{
		detector: det,
		cooldown: NewCooldown(cfg.Cooldown),
		payload:  models.CrisisResourcesPayload{Message: cfg.Message, Resources: resources},
	}, nil
}

// Check runs the detector. Detector failures are logged and treated as no
// match; they never affect delivery of the message.
func (s *SideChannel) Check(room, content string) Result {
	if s == nil {
		return Result{}
	}
	res, err := s.detector.Detect(content)
	if err != nil {
		logging.Error().Err(err).Str("room", room).Msg("crisis detection failed")
		return Result{}
	}
	if res.Matched {
		logging.Debug().Str("room", room).Str("phrase", res.Phrase).Msg("crisis phrase matched")
	}
	return res
}

// Alert returns the crisis-resources envelope if the room is outside its
// cooldown window at now.
func (s *SideChannel) Alert(room string, now time.Time) (models.Envelope, bool) {
	if s == nil || !s.cooldown.Allow(room, now) {
		return models.Envelope{}, false
	}
	return models.Envelope{Type: models.EventCrisisResources, Data: s.payload}, true
}

// ResourceCount returns the number of resources shown per alert.
func (s *SideChannel) ResourceCount() int {
	if s == nil {
		return 0
	}
	return len(s.payload.Resources)
}
