// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/rooms", "200"))
	RecordAPIRequest("GET", "/api/v1/rooms", "200", 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/rooms", "200"))

	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordStoreOperation(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantErrs  float64
	}{
		{"success", "append", nil, 0},
		{"failure", "recent", errors.New("disk full"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(StoreErrors.WithLabelValues("memory", tt.operation))
			RecordStoreOperation("memory", tt.operation, time.Millisecond, tt.err)
			after := testutil.ToFloat64(StoreErrors.WithLabelValues("memory", tt.operation))
			if after-before != tt.wantErrs {
				t.Errorf("error delta = %v, want %v", after-before, tt.wantErrs)
			}
		})
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	tests := []struct {
		to   string
		want float64
	}{
		{"open", 2},
		{"half-open", 1},
		{"closed", 0},
	}
	for _, tt := range tests {
		t.Run(tt.to, func(t *testing.T) {
			RecordCircuitBreakerTransition("test-breaker", "closed", tt.to)
			if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != tt.want {
				t.Errorf("state gauge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetRoomMembers(t *testing.T) {
	SetRoomMembers("general", 7)
	if got := testutil.ToFloat64(RoomMembers.WithLabelValues("general")); got != 7 {
		t.Errorf("room gauge = %v, want 7", got)
	}
}

func TestRecordSafetyEvent(t *testing.T) {
	okBefore := testutil.ToFloat64(SafetyEventsPublished.WithLabelValues("published"))
	failBefore := testutil.ToFloat64(SafetyEventsPublished.WithLabelValues("failed"))

	RecordSafetyEvent(nil)
	RecordSafetyEvent(errors.New("nats down"))

	if d := testutil.ToFloat64(SafetyEventsPublished.WithLabelValues("published")) - okBefore; d != 1 {
		t.Errorf("published delta = %v", d)
	}
	if d := testutil.ToFloat64(SafetyEventsPublished.WithLabelValues("failed")) - failBefore; d != 1 {
		t.Errorf("failed delta = %v", d)
	}
}
