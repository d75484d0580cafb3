// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
	"github.com/jeranaias/relaychat-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is one key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the chat screen: connection state, who we
// are, who we are talking to, the filter policy and the typing indicator.
type StatusBar struct {
	State     string // idle, connecting, open, closed
	Username  string
	Peer      string
	Policy    string
	Typing    bool
	Width     int
	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		State: "idle",
		Width: 80,
		Shortcuts: []Shortcut{
			{"enter", "send"},
			{"tab", "focus"},
			{"ctrl+f", "filter"},
			{"ctrl+p", "profile"},
			{"ctrl+l", "logout"},
		},
		theme: theme,
	}
}

// StateLabel returns the user-facing text for a connection state. The
// indicator shape keeps the state readable without color.
func StateLabel(state string) string {
	switch state {
	case "open":
		return styles.StatusIndicators.Active + " connected"
	case "connecting":
		return styles.StatusIndicators.Pending + " connecting"
	case "closed":
		return styles.StatusIndicators.Error + " disconnected"
	default:
		return "- offline"
	}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	left := []string{s.theme.StateStyle(s.State).Render(StateLabel(s.State))}
	if s.Username != "" && s.Width >= 60 {
		left = append(left, lipgloss.NewStyle().Foreground(styles.Cyan).Render(util.Truncate(s.Username, 16)))
	}
	if s.Peer != "" {
		left = append(left, "to "+util.Truncate(s.Peer, 16))
	}
	if s.Policy != "" && s.Width >= 60 {
		left = append(left, s.Policy)
	}
	if s.Typing {
		left = append(left, s.theme.TypingIndicator.Render("typing..."))
	}
	leftText := strings.Join(left, sep)

	var right string
	if s.Width >= 100 {
		hints := make([]string, 0, len(s.Shortcuts))
		for _, sc := range s.Shortcuts {
			hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
		}
		right = strings.Join(hints, "  ")
	}

	gap := s.Width - 2 - lipgloss.Width(leftText) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(leftText + strings.Repeat(" ", gap) + right)
}
