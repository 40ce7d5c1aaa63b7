// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/havenchat/haven/internal/config"
	"github.com/havenchat/haven/internal/logging"
	"github.com/havenchat/haven/internal/middleware"
	"github.com/havenchat/haven/internal/models"
	"github.com/havenchat/haven/internal/rooms"
	"github.com/havenchat/haven/internal/session"
	"github.com/havenchat/haven/internal/store"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const testSessionID = "anon_0123456789abcdef"

type response[T any] struct {
	Status   string           `json:"status"`
	Data     T                `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) response[T] {
	t.Helper()
	var out response[T]
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

type nopConn struct{ id uint64 }

func (c nopConn) ID() uint64                     { return c.id }
func (c nopConn) Deliver(_ models.Envelope) bool { return true }

// recordingReader wraps a history reader and remembers the last limit asked for.
type recordingReader struct {
	mu    sync.Mutex
	inner HistoryReader
	err   error
	limit int
}

func (r *recordingReader) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	r.mu.Lock()
	r.limit = limit
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.inner.Recent(ctx, room, limit)
}

func (r *recordingReader) lastLimit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

type fakeReadiness struct {
	ready bool
	state string
}

func (f fakeReadiness) Ready() bool     { return f.ready }
func (f fakeReadiness) State() string   { return f.state }
func (f fakeReadiness) Backend() string { return "memory" }

type testEnv struct {
	registry *rooms.Registry
	history  *store.Memory
	reader   *recordingReader
	handler  http.Handler
}

func newTestEnv(t *testing.T, readiness ReadinessChecker, mwCfg *ChiMiddlewareConfig) *testEnv {
	t.Helper()
	registry, err := rooms.NewRegistry([]string{"general", "veterans"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	mem := store.NewMemory(100)
	reader := &recordingReader{inner: mem}

	chat := config.Default().Chat
	h := NewHandler(registry, reader, readiness, &chat)
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(h, ws, NewChiMiddleware(mwCfg), session.DefaultIdentityPolicy())
	return &testEnv{registry: registry, history: mem, reader: reader, handler: router.SetupChi()}
}

func (e *testEnv) get(t *testing.T, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, room string, texts ...string) {
	t.Helper()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range texts {
		ts := base.Add(time.Duration(i) * time.Second)
		msg := &models.Message{
			ID:          models.NewMessageID(ts),
			Room:        room,
			DisplayName: "Sam",
			Content:     text,
			Timestamp:   ts,
		}
		if err := e.history.Append(context.Background(), msg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestRoomHistory_SendOrder(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.seed(t, "general", "first", "second", "third")
	env.seed(t, "veterans", "elsewhere")

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"default limit", "", []string{"first", "second", "third"}},
		{"limit keeps newest", "&limit=2", []string{"second", "third"}},
		{"oversized limit is clamped", "&limit=1000", []string{"first", "second", "third"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, "/api/v1/rooms/general/messages?sessionId="+testSessionID+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			resp := decode[models.RoomHistory](t, rec)
			if resp.Status != "success" || resp.Data.Room != "general" {
				t.Fatalf("unexpected response %+v", resp)
			}
			if resp.Metadata.Degraded {
				t.Error("healthy store should not report degraded")
			}
			if len(resp.Data.Messages) != len(tt.want) {
				t.Fatalf("got %d messages, want %d", len(resp.Data.Messages), len(tt.want))
			}
			for i, m := range resp.Data.Messages {
				if m.Message != tt.want[i] {
					t.Errorf("message %d = %q, want %q", i, m.Message, tt.want[i])
				}
			}
		})
	}

	env.get(t, "/api/v1/rooms/general/messages?limit=1000&sessionId="+testSessionID, nil)
	if got := env.reader.lastLimit(); got != 200 {
		t.Errorf("store asked for %d messages, want clamp to 200", got)
	}
}

func TestRoomHistory_Rejections(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	tests := []struct {
		name     string
		target   string
		header   http.Header
		wantCode int
		wantErr  string
	}{
		{"missing session", "/api/v1/rooms/general/messages", nil, http.StatusBadRequest, models.CodeValidation},
		{"malformed session", "/api/v1/rooms/general/messages?sessionId=bad-id", nil, http.StatusBadRequest, models.CodeValidation},
		{"header session accepted", "/api/v1/rooms/general/messages",
			http.Header{middleware.SessionHeader: {testSessionID}}, http.StatusOK, ""},
		{"unknown room", "/api/v1/rooms/lounge/messages?sessionId=" + testSessionID, nil, http.StatusNotFound, models.CodeInvalidRoom},
		{"non-numeric limit", "/api/v1/rooms/general/messages?limit=abc&sessionId=" + testSessionID, nil, http.StatusBadRequest, models.CodeValidation},
		{"zero limit", "/api/v1/rooms/general/messages?limit=0&sessionId=" + testSessionID, nil, http.StatusBadRequest, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, tt.target, tt.header)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			resp := decode[json.RawMessage](t, rec)
			if tt.wantErr == "" {
				if resp.Error != nil {
					t.Errorf("unexpected error %+v", resp.Error)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantErr)
			}
			if resp.Status != "error" {
				t.Errorf("status field = %q, want error", resp.Status)
			}
		})
	}
}

func TestRoomHistory_DegradedOnStoreOutage(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.seed(t, "general", "hello")
	env.reader.err = errors.Join(models.ErrPersistence, errors.New("disk gone"))

	var logs bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&logs))
	t.Cleanup(func() { logging.SetLogger(prev) })

	rec := env.get(t, "/api/v1/rooms/general/messages?sessionId="+testSessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[models.RoomHistory](t, rec)
	if !resp.Metadata.Degraded {
		t.Error("expected metadata.degraded")
	}
	if resp.Data.Messages == nil || len(resp.Data.Messages) != 0 {
		t.Errorf("messages = %v, want empty list", resp.Data.Messages)
	}

	out := logs.String()
	if !strings.Contains(out, logging.MaskSessionID(testSessionID)) {
		t.Errorf("outage log should carry the masked session, got %s", out)
	}
	if strings.Contains(out, testSessionID) {
		t.Error("outage log leaked the raw session ID")
	}
}

func TestListRooms(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	if _, err := env.registry.Join("veterans", testSessionID, "Sam", nopConn{id: 1}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	rec := env.get(t, "/api/v1/rooms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[[]models.RoomSummary](t, rec)
	want := []models.RoomSummary{{Name: "general", MemberCount: 0}, {Name: "veterans", MemberCount: 1}}
	if len(resp.Data) != len(want) {
		t.Fatalf("rooms = %+v, want %+v", resp.Data, want)
	}
	for i := range want {
		if resp.Data[i] != want[i] {
			t.Errorf("room %d = %+v, want %+v", i, resp.Data[i], want[i])
		}
	}
	if rec.Header().Get("X-Request-ID") == "" || resp.Metadata.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request id header %q does not match metadata %q",
			rec.Header().Get("X-Request-ID"), resp.Metadata.RequestID)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		readiness  ReadinessChecker
		path       string
		wantCode   int
		wantStatus string
	}{
		{"live", fakeReadiness{ready: false, state: "open"}, "/api/v1/health/live", http.StatusOK, "success"},
		{"ready without checker", nil, "/api/v1/health/ready", http.StatusOK, "ready"},
		{"ready with closed breaker", fakeReadiness{ready: true, state: "closed"}, "/api/v1/health/ready", http.StatusOK, "ready"},
		{"not ready with open breaker", fakeReadiness{ready: false, state: "open"}, "/api/v1/health/ready", http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.readiness, nil)
			rec := env.get(t, tt.path, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			resp := decode[map[string]interface{}](t, rec)
			if resp.Status != tt.wantStatus {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	env := newTestEnv(t, nil, cfg)

	for i := 0; i < 2; i++ {
		if rec := env.get(t, "/api/v1/rooms", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.get(t, "/api/v1/rooms", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if resp := decode[json.RawMessage](t, rec); resp.Error == nil || resp.Error.Code != models.CodeRateLimited {
		t.Errorf("error = %+v, want RATE_LIMITED", resp.Error)
	}

	// Health probes are not rate limited.
	if rec := env.get(t, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitDisabled = true
	env := newTestEnv(t, nil, cfg)

	for i := 0; i < 5; i++ {
		if rec := env.get(t, "/api/v1/rooms", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://haven.example"}
	env := newTestEnv(t, nil, cfg)

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "https://haven.example", "https://haven.example"},
		{"other origin", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, "/api/v1/rooms", http.Header{"Origin": {tt.origin}})
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouter_WebSocketAndFallbacks(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	if rec := env.get(t, "/ws", nil); rec.Code != http.StatusTeapot {
		t.Errorf("/ws status = %d, want the websocket handler", rec.Code)
	}

	rec := env.get(t, "/api/v1/nothing-here", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decode[json.RawMessage](t, rec); resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", resp.Error)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", nil)
	post := httptest.NewRecorder()
	env.handler.ServeHTTP(post, req)
	if post.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", post.Code)
	}

	if rec := env.get(t, "/metrics", nil); rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", rec.Code)
	}
}

func TestChiMiddlewareConfigFrom(t *testing.T) {
	sec := &config.SecurityConfig{
		CORSOrigins:       []string{"https://a.example"},
		RateLimitReqs:     7,
		RateLimitWindow:   30 * time.Second,
		RateLimitDisabled: true,
	}
	got := ChiMiddlewareConfigFrom(sec)
	if len(got.CORSAllowedOrigins) != 1 || got.RateLimitRequests != 7 ||
		got.RateLimitWindow != 30*time.Second || !got.RateLimitDisabled {
		t.Errorf("unexpected config %+v", got)
	}
	if def := ChiMiddlewareConfigFrom(nil); def.RateLimitRequests != 120 {
		t.Errorf("nil security config should use defaults, got %+v", def)
	}
}
