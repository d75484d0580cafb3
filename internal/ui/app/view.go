// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat-tui/internal/ui/components"
)

// View renders the active screen with toasts over its lower right corner.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case m.screen == ScreenChat && m.showProfile:
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			m.profile.Overlay(m.width, max(m.height-1, 1)))
	case m.screen == ScreenChat:
		content = lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.chat.View())
	case m.screen == ScreenLogin:
		content = m.login.View()
	default:
		content = m.renderLoading()
	}

	toasts := m.toasts.Toasts()
	if len(toasts) == 0 {
		return content
	}
	stack := components.RenderToastStack(toasts, m.width, 0, time.Now())
	// Keep the status line visible on the chat screen.
	keep := 0
	if m.screen == ScreenChat && !m.showProfile {
		keep = 1
	}
	return overlayBottom(content, stack, m.width, keep)
}

func (m *Model) renderHeader() string {
	t := m.theme
	title := t.HeaderTitle.Render("relaychat")
	if m.identity != nil {
		title += t.HeaderSubtitle.Render("  " + m.identity.Username)
	}
	if m.width <= 0 {
		return t.Header.Render(title)
	}
	return t.Header.Width(m.width).MaxHeight(1).Render(title)
}

func (m *Model) renderLoading() string {
	text := m.spinner.View() + " " + m.theme.Hint.Render("Signing in...")
	if m.width <= 0 || m.height <= 0 {
		return text
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}

// overlayBottom replaces the lines just above the last keep lines of base
// with the lines of top, right aligned to width.
func overlayBottom(base, top string, width, keep int) string {
	lines := strings.Split(base, "\n")
	over := strings.Split(top, "\n")

	end := max(len(lines)-keep, 0)
	start := end - len(over)
	if start < 0 {
		over = over[-start:]
		start = 0
	}
	for i, l := range over {
		if width > 0 {
			l = lipgloss.PlaceHorizontal(width, lipgloss.Right, l)
		}
		lines[start+i] = l
	}
	return strings.Join(lines, "\n")
}
