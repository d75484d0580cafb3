// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the real-time messaging session.
//
// A Session owns the single relay connection for the current identity and
// the message timeline built from local sends and inbound frames. It moves
// through four states:
//
//	Idle -> Connecting -> Open -> Closed
//
// Binding an identity dials a connection addressed by the identity's user
// id. The dial succeeding is the ready signal. A connection that ends moves
// the session to Closed with no automatic reconnect; only binding an
// identity again re-enters Connecting. Changing the selected peer never
// touches the connection.
//
// Every bind increments a generation counter. The reader goroutine of a
// connection carries the generation it was started for, and anything it
// reports after the session has moved on is discarded.
//
// # Key Types
//
//   - Session: State machine, timeline and connection owner
//   - Snapshot: Consistent copy of session state for rendering
//   - Event: Change notification delivered on Events()
//   - Typing: Local typing indicator with an idle reset timer
//
// # Usage
//
//	s := session.New(session.Config{Dialer: dialer, URLTemplate: tmpl})
//	defer s.Close()
//	if err := s.Bind(ctx, identity); err != nil {
//	    // dial failed, session is Closed
//	}
//	s.SelectPeer(&peer)
//	msg, err := s.Send("hello")
//
// # Bubble Tea Integration
//
// WaitForEvent turns the event channel into a tea.Cmd; the model re-reads
// Snapshot on each EventMsg and re-issues WaitForEvent.
package session
