// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

/*
Package crisis detects crisis language in chat messages and decides when a
room should be shown support resources.

Detection is a side channel. It never blocks, rejects or rewrites a message;
a match only flags the message and, subject to a per-room cooldown, causes a
crisis-resources broadcast to everyone in the room.

Components:

  - Detector: Aho-Corasick automaton over the configured phrase list.
    Matching is case-insensitive. Whitespace and punctuation runs fold to a
    single space, typographic apostrophes fold to ASCII and a trailing "ing"
    is dropped from longer words. A match must start a word but may end
    inside one, so "suicides" matches "suicide".
  - Cooldown: per-room token bucket (golang.org/x/time/rate, burst 1) that
    allows one resources broadcast per window.
  - SideChannel: ties the two together with the configured resource list.

The matched phrase is reported for internal flagging and debug logging only.
It is never sent to other users and never published outside the process.
*/
package crisis
