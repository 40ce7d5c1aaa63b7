// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/middleware"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/rooms"
	"github.com/havenchat/haven/internal/validation"
)

// HistoryReader reads recent room history, oldest first.
type HistoryReader interface {
	Recent(ctx context.Context, room string, limit int) ([]models.Message, error)
}

// ReadinessChecker reports whether the history store is accepting calls.
type ReadinessChecker interface {
	Ready() bool
	State() string
	Backend() string
}

// Handler serves the REST endpoints.
type Handler struct {
	registry  *rooms.Registry
	history   HistoryReader
	readiness ReadinessChecker

	historyLimit int
	historyMax   int
	startTime    time.Time
}

// NewHandler creates a Handler. A nil readiness checker reports ready.
func NewHandler(registry *rooms.Registry, history HistoryReader, readiness ReadinessChecker, chat *config.ChatConfig) *Handler {
	h := &Handler{
		registry:     registry,
		history:      history,
		readiness:    readiness,
		historyLimit: 50,
		historyMax:   200,
		startTime:    time.Now(),
	}
	if chat != nil {
		if chat.HistoryLimit > 0 {
			h.historyLimit = chat.HistoryLimit
		}
		if chat.HistoryMax > 0 {
			h.historyMax = chat.HistoryMax
		}
	}
	return h
}

// ListRooms returns the room catalog with live member counts.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.registry.Counts(), models.Metadata{})
}

type historyQuery struct {
	Limit int `json:"limit" validate:"gte=1"`
}

// RoomHistory returns up to limit recent messages of a room in send order.
// The session ID has already been checked by middleware.RequireSession.
func (h *Handler) RoomHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	room := chi.URLParam(r, "room")
	if !h.registry.Exists(room) {
		respondError(w, r, http.StatusNotFound, models.CodeInvalidRoom,
			models.UserMessage(models.ErrInvalidRoom), nil)
		return
	}

	q, verr := h.parseHistoryQuery(r)
	if verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	limit := min(q.Limit, h.historyMax)
	meta := models.Metadata{}
	msgs, err := h.history.Recent(r.Context(), room, limit)
	if err != nil {
		logging.Ctx(r.Context()).Warn().
			Err(err).
			Str("room", room).
			Str("session", logging.MaskSessionID(middleware.GetSessionID(r.Context()))).
			Msg("history unavailable, serving empty result")
		msgs = nil
		meta.Degraded = true
	}

	payload := models.RoomHistory{Room: room, Messages: make([]models.NewMessagePayload, 0, len(msgs))}
	for i := range msgs {
		payload.Messages = append(payload.Messages, msgs[i].Payload())
	}
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	respondSuccess(w, r, payload, meta)
}

func (h *Handler) parseHistoryQuery(r *http.Request) (historyQuery, *validation.RequestValidationError) {
	q := historyQuery{Limit: h.historyLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, validation.NewFieldError("limit", "gte", "1", "limit must be a positive integer")
		}
		q.Limit = n
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		return q, verr
	}
	return q, nil
}

// HealthLive handles liveness probes. It only reports that the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, models.Metadata{})
}

// HealthReady handles readiness probes. It answers 503 while the store
// circuit breaker is open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := true
	data := map[string]interface{}{
		"uptime": time.Since(h.startTime).Seconds(),
	}
	if h.readiness != nil {
		ready = h.readiness.Ready()
		data["store_backend"] = h.readiness.Backend()
		data["store_breaker"] = h.readiness.State()
	}
	data["ready_to_serve"] = ready

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, &models.APIResponse{Status: status, Data: data})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}
