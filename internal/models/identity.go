// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package models

// AnonymousIdentity is an account-free handle valid for one browser session.
// The server never stores it; it lives only in room membership while a
// connection is open.
type AnonymousIdentity struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}
