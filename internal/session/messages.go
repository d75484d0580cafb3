// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/relaychat-tui/internal/model"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// EventMsg carries one session event into the Bubble Tea update loop.
type EventMsg struct {
	Event Event
}

// EventsClosedMsg is sent once the session has been closed.
type EventsClosedMsg struct{}

// BoundMsg reports the outcome of BindCmd. Identity is the identity the bind
// was issued for, so a result arriving after another identity change can be
// recognised and ignored.
type BoundMsg struct {
	Identity *model.Identity
	Err      error
}

// SentMsg reports the outcome of SendCmd. Body is the draft that was sent,
// returned so the view can restore it on failure.
type SentMsg struct {
	Body    string
	Message model.ChatMessage
	Err     error
}

// WaitForEvent returns a command that blocks for the next session event.
// Re-issue it after handling each EventMsg.
func WaitForEvent(s *Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// BindCmd binds the session to id off the update loop.
func BindCmd(ctx context.Context, s *Session, id *model.Identity) tea.Cmd {
	return func() tea.Msg {
		return BoundMsg{Identity: id, Err: s.Bind(ctx, id)}
	}
}

// Sender is the part of a Session that SendCmd needs.
type Sender interface {
	Send(body string) (model.ChatMessage, error)
}

// SendCmd sends body off the update loop.
func SendCmd(s Sender, body string) tea.Cmd {
	return func() tea.Msg {
		msg, err := s.Send(body)
		return SentMsg{Body: body, Message: msg, Err: err}
	}
}
