// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrReconnectExhausted is surfaced when every reconnect attempt failed.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// State is a connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Joined
	Reconnecting
	Failed
)

var stateNames = [...]string{"disconnected", "connecting", "connected", "joined", "reconnecting", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Status is the machine's full state. Attempt counts reconnect attempts
// since the last successful handshake.
type Status struct {
	State   State
	Attempt int
	Err     error
}

// EventKind identifies an input to the machine.
type EventKind int

const (
	Dial EventKind = iota
	HandshakeOK
	HandshakeFailed
	JoinOK
	JoinRejected
	TransportLost
	UserLeave
	RetryTimerFired
	ManualRetry
)

var eventNames = [...]string{
	"dial", "handshake_ok", "handshake_failed", "join_ok", "join_rejected",
	"transport_lost", "user_leave", "retry_timer_fired", "manual_retry",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventNames[k]
}

// Event is an input to the machine. Err carries the cause for failure events.
type Event struct {
	Kind EventKind
	Err  error
}

// EffectKind identifies work the driver must perform.
type EffectKind int

const (
	EffectDial EffectKind = iota
	EffectSendJoin
	EffectScheduleRetry
	EffectCancelRetry
	EffectCloseTransport
	EffectSurfaceError
)

// Effect is one unit of driver work. Delay is set for EffectScheduleRetry,
// Err for EffectSurfaceError.
type Effect struct {
	Kind  EffectKind
	Delay time.Duration
	Err   error
}

// Transition returns the status after ev and the effects to perform, in
// order. Events that do not apply in the current state leave it unchanged
// and produce no effects.
func Transition(s Status, ev Event, p Policy) (Status, []Effect) {
	if ev.Kind == UserLeave {
		return Status{State: Disconnected}, []Effect{{Kind: EffectCancelRetry}, {Kind: EffectCloseTransport}}
	}

	switch s.State {
	case Disconnected:
		if ev.Kind == Dial {
			return Status{State: Connecting}, []Effect{{Kind: EffectDial}}
		}

	case Connecting:
		switch ev.Kind {
		case HandshakeOK:
			return Status{State: Connected}, []Effect{{Kind: EffectSendJoin}}
		case HandshakeFailed:
			return retry(s, ev.Err, p)
		}

	case Connected:
		switch ev.Kind {
		case JoinOK:
			return Status{State: Joined}, nil
		case JoinRejected:
			return Status{State: Connected, Err: ev.Err}, []Effect{{Kind: EffectSurfaceError, Err: ev.Err}}
		case TransportLost:
			return retry(Status{State: Connected}, ev.Err, p)
		}

	case Joined:
		if ev.Kind == TransportLost {
			return retry(Status{State: Joined}, ev.Err, p)
		}

	case Reconnecting:
		switch ev.Kind {
		case RetryTimerFired:
			return s, []Effect{{Kind: EffectDial}}
		case HandshakeOK:
			return Status{State: Connected}, []Effect{{Kind: EffectSendJoin}}
		case HandshakeFailed:
			return retry(s, ev.Err, p)
		}

	case Failed:
		if ev.Kind == ManualRetry {
			return Status{State: Connecting}, []Effect{{Kind: EffectDial}}
		}
	}
	return s, nil
}

// retry schedules the next attempt or gives up once MaxAttempts is spent.
func retry(s Status, cause error, p Policy) (Status, []Effect) {
	attempt := s.Attempt + 1
	if attempt > p.MaxAttempts {
		err := ErrReconnectExhausted
		if cause != nil {
			err = fmt.Errorf("%w: %w", ErrReconnectExhausted, cause)
		}
		return Status{State: Failed, Attempt: s.Attempt, Err: err}, []Effect{
			{Kind: EffectCancelRetry},
			{Kind: EffectCloseTransport},
			{Kind: EffectSurfaceError, Err: err},
		}
	}
	return Status{State: Reconnecting, Attempt: attempt, Err: cause}, []Effect{
		{Kind: EffectCloseTransport},
		{Kind: EffectScheduleRetry, Delay: p.Backoff(attempt)},
	}
}
