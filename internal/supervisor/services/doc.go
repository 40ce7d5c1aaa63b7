// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

// Package services adapts chat server components to suture.Service.
//
// Each wrapper translates a component lifecycle (RunWithContext,
// ListenAndServe/Shutdown, started-at-construction) into Serve(ctx) and
// names itself through fmt.Stringer for supervisor logs.
package services
