// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile renders the current user's profile.
package profile

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// Placeholders shown instead of profile fields.
const (
	NoProfile = "No profile found"
	Loading   = "Loading..."
)

// Model is the profile panel. It has no input of its own; the app toggles it
// as an overlay.
type Model struct {
	theme     *styles.Theme
	identity  *model.Identity
	expiresAt time.Time
	loading   bool
	now       func() time.Time
}

// New creates an empty profile panel.
func New(theme *styles.Theme) Model {
	return Model{theme: theme, now: time.Now}
}

// SetLoading marks the identity as being resolved.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetIdentity shows id. expiresAt is when the cached identity lapses; zero
// hides the line.
func (m *Model) SetIdentity(id *model.Identity, expiresAt time.Time) {
	if id == nil {
		m.identity = nil
	} else {
		cp := *id
		m.identity = &cp
	}
	m.expiresAt = expiresAt
	m.loading = false
}

// View renders the panel.
func (m Model) View() string {
	t := m.theme

	var b strings.Builder
	b.WriteString(t.PanelTitle.Render("Profile"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(t.Hint.Render(Loading))
	case m.identity == nil:
		b.WriteString(t.Hint.Render(NoProfile))
	default:
		id := m.identity
		rows := [][2]string{
			{"Username", id.Username},
			{"Email", id.Email},
			{"Location", id.Location},
			{"Phone Number", id.PhoneNumber},
			{"User Type", id.UserType},
		}
		for _, r := range rows {
			value := r[1]
			if value == "" {
				value = "-"
			}
			b.WriteString(t.FieldLabel.Render(r[0]) + t.FieldValue.Render(value) + "\n")
		}
		if !m.expiresAt.IsZero() {
			left := m.expiresAt.Sub(m.now()).Round(time.Minute)
			if left < 0 {
				left = 0
			}
			b.WriteString("\n" + t.Hint.Render("Session refreshes in "+left.String()))
		}
	}

	b.WriteString("\n\n" + t.Hint.Render("ctrl+p: close"))
	return t.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// Overlay centers the panel over a width x height area.
func (m Model) Overlay(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.View())
}
