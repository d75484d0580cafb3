// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the conversation view of the relaychat TUI.

The view is a thin renderer over a session. It never keeps its own copy of
the timeline: every session event triggers a Refresh that re-reads the
session snapshot, re-renders the visible entries and scrolls to the latest
message when the number of visible entries changed.

# Layout

  - Peer list (left, hidden on narrow terminals)
  - Timeline viewport with message bubbles, outgoing right aligned
  - Compose box, disabled unless the session is open with a peer selected
  - Status bar with connection state, identity, peer and filter policy

Nothing is rendered in the timeline before the identity is resolved, because
orientation needs to know who "we" are.

# Key Types

  - Model: Bubble Tea model for the view
  - Session: The session operations the view drives
  - KeyMap: Keyboard bindings

# Usage

	m := chat.New(chat.Options{
	    Theme:   theme,
	    Session: sess,
	    Peers:   peers,
	    Toasts:  toasts,
	})
	m.SetSize(width, height)

Forward session.EventMsg and session.SentMsg values to Update. Call
PeersChanged after the peer set is replaced or reset.
*/
package chat
