// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package websocket

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/metrics"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/validation"
)

var (
	errUnknownRoom = models.NewError(models.ErrInvalidRoom, "That room does not exist.", nil)
	errNotJoined   = models.NewError(models.ErrNotJoined, "Join the room before sending messages.", nil)
	errTooFast     = models.NewError(models.ErrRateLimited, "You are sending messages too quickly.", nil)
)

func (c *Client) handle(env models.InboundEnvelope) {
	switch env.Type {
	case models.EventJoinRoom, models.EventSendMessage, models.EventLeaveRoom, models.EventReportMessage:
		metrics.WSEventsReceived.WithLabelValues(env.Type).Inc()
	default:
		metrics.WSEventsReceived.WithLabelValues("unknown").Inc()
		c.replyError(models.NewError(models.ErrBadRequest, "Unknown event type.", nil))
		return
	}

	var err error
	switch env.Type {
	case models.EventJoinRoom:
		err = c.handleJoin(env.Data)
	case models.EventSendMessage:
		err = c.handleSend(env.Data)
	case models.EventLeaveRoom:
		err = c.handleLeave(env.Data)
	case models.EventReportMessage:
		err = c.handleReport(env.Data)
	}
	if err != nil {
		c.replyError(err)
	}
}

func (c *Client) replyError(err error) {
	code := models.ErrorCode(err)
	metrics.WSErrors.WithLabelValues(code).Inc()
	if code == models.CodeInternal || code == models.CodePersistence {
		logging.Error().Err(err).Uint64("conn_id", c.id).Msg("websocket event failed")
	}
	c.reply(models.ErrorEnvelope(err))
}

// decode unmarshals data into dst and validates its tags.
func decode(data json.RawMessage, dst interface{}) error {
	if len(data) == 0 {
		return models.NewError(models.ErrBadRequest, "The request is missing its data.", nil)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return models.NewError(models.ErrBadRequest, "The request could not be understood.", err)
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return models.NewError(models.ErrValidation, verr.ToAPIError().Message, verr)
	}
	return nil
}

// checkRoom reads just the room so unknown rooms report INVALID_ROOM rather
// than a shape error.
func (c *Client) checkRoom(data json.RawMessage) error {
	var probe struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Room != "" && !c.hub.registry.Exists(probe.Room) {
		return errUnknownRoom
	}
	return nil
}

func (c *Client) handleJoin(data json.RawMessage) error {
	if err := c.checkRoom(data); err != nil {
		return err
	}
	var req models.JoinRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	identity, err := c.hub.identity.Normalize(req.SessionID, req.DisplayName)
	if err != nil {
		return err
	}

	prevRoom, prev := c.current()
	if prevRoom != "" && (prevRoom != req.Room || prev.SessionID != identity.SessionID) {
		c.leaveCurrent()
	}
	if _, err := c.hub.broadcaster.Join(req.Room, identity, c); err != nil {
		return err
	}
	c.setCurrent(req.Room, identity)

	logging.Debug().
		Uint64("conn_id", c.id).
		Str("room", req.Room).
		Str("session", logging.MaskSessionID(identity.SessionID)).
		Msg("joined room")
	return nil
}

// member returns the identity the client holds in room, or errNotJoined.
func (c *Client) member(room string) (models.AnonymousIdentity, error) {
	current, identity := c.current()
	if current != room || !c.hub.registry.IsMember(room, identity.SessionID, c.id) {
		return models.AnonymousIdentity{}, errNotJoined
	}
	return identity, nil
}

func (c *Client) handleSend(data json.RawMessage) error {
	if err := c.checkRoom(data); err != nil {
		return err
	}
	var req models.SendMessageRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	identity, err := c.member(req.Room)
	if err != nil {
		return err
	}
	if !c.limiter.Allow() {
		return errTooFast
	}
	_, err = c.hub.broadcaster.Send(c.ctx, req.Room, identity, req.Message)
	return err
}

func (c *Client) handleLeave(data json.RawMessage) error {
	if err := c.checkRoom(data); err != nil {
		return err
	}
	var req models.LeaveRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if current, _ := c.current(); current == req.Room {
		c.leaveCurrent()
	}
	return nil
}

func (c *Client) handleReport(data json.RawMessage) error {
	if err := c.checkRoom(data); err != nil {
		return err
	}
	var req models.ReportMessageRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if _, err := c.member(req.Room); err != nil {
		return err
	}
	if err := c.hub.broadcaster.Report(c.ctx, req.Room, req.MessageID); err != nil {
		if !errors.Is(err, models.ErrValidation) && !errors.Is(err, models.ErrInvalidRoom) {
			logging.Warn().Err(err).Str("room", req.Room).Msg("report failed")
		}
		return err
	}
	c.reply(models.Envelope{Type: models.EventMessageReported, Data: models.MessageReportedPayload{ID: req.MessageID}})
	return nil
}
