// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/session"
)

// SessionHeader is the header alternative to the sessionId query parameter.
const SessionHeader = "X-Session-ID"

// RequireSession rejects requests that do not carry a valid anonymous
// session ID. The query parameter wins over the header.
func RequireSession(policy session.IdentityPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := r.URL.Query().Get("sessionId")
			if sid == "" {
				sid = r.Header.Get(SessionHeader)
			}
			if err := policy.ValidateSessionID(sid); err != nil {
				writeValidationError(w, r, models.UserMessage(err))
				return
			}
			ctx := context.WithValue(r.Context(), SessionIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID returns the session ID accepted by RequireSession.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

func writeValidationError(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: GetRequestID(r.Context()),
		},
		Error: &models.APIError{Code: models.CodeValidation, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode validation error")
	}
}
