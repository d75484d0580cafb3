// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the login screen: a username and a masked password
// field that exchange credentials for a token pair.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// Authenticator exchanges a username and password for tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.TokenPair, error)
}

// =============================================================================
// MESSAGES
// =============================================================================

// SucceededMsg is emitted when the server accepted the credentials.
type SucceededMsg struct {
	Username string
	Tokens   *api.TokenPair
}

// FailedMsg is emitted when the login request failed. The form stays
// editable.
type FailedMsg struct {
	Err error
}

// ErrRequired is reported, without a network call, when a field is empty.
var ErrRequired = errors.New("username and password are required")

// =============================================================================
// KEYS
// =============================================================================

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
}

var keys = keyMap{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in")),
}

// =============================================================================
// MODEL
// =============================================================================

const (
	fieldUsername = iota
	fieldPassword
)

// Model is the Bubble Tea model for the login screen.
type Model struct {
	theme   *styles.Theme
	auth    Authenticator
	timeout time.Duration

	username textinput.Model
	password textinput.Model
	spinner  spinner.Model
	focus    int

	loading bool
	err     string

	width  int
	height int
}

// New creates the login screen. timeout bounds each login request.
func New(theme *styles.Theme, auth Authenticator, timeout time.Duration) Model {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 150
	user.Prompt = ""
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Prompt = ""
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return Model{
		theme:    theme,
		auth:     auth,
		timeout:  timeout,
		username: user,
		password: pass,
		spinner:  sp,
	}
}

// Prefill sets the username field, for example from the stored credential.
func (m *Model) Prefill(username string) {
	m.username.SetValue(username)
	if username != "" {
		m.setFocus(fieldPassword)
	}
}

// Reset clears the form for a fresh login.
func (m *Model) Reset() {
	m.password.SetValue("")
	m.loading = false
	m.err = ""
	m.setFocus(fieldUsername)
}

// Loading reports whether a login request is in flight.
func (m Model) Loading() bool {
	return m.loading
}

func (m *Model) setFocus(f int) {
	m.focus = f
	if f == fieldUsername {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.username.Blur()
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input and the login result.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case SucceededMsg:
		m.loading = false
		m.err = ""
		return m, nil

	case FailedMsg:
		m.loading = false
		m.err = Describe(msg.Err)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Next):
			m.setFocus((m.focus + 1) % 2)
			return m, nil
		case key.Matches(msg, keys.Prev):
			m.setFocus((m.focus + 1) % 2)
			return m, nil
		case key.Matches(msg, keys.Submit):
			if m.focus == fieldUsername && m.password.Value() == "" {
				m.setFocus(fieldPassword)
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.err = ErrRequired.Error()
		if username == "" {
			m.setFocus(fieldUsername)
		} else {
			m.setFocus(fieldPassword)
		}
		return m, nil
	}

	m.loading = true
	m.err = ""
	return m, tea.Batch(m.spinner.Tick, loginCmd(m.auth, m.timeout, username, password))
}

func loginCmd(auth Authenticator, timeout time.Duration, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		tokens, err := auth.Login(ctx, username, password)
		if err != nil {
			return FailedMsg{Err: err}
		}
		return SucceededMsg{Username: username, Tokens: tokens}
	}
}

// Describe turns a login error into a line for the form.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrUnauthorized):
		return "Invalid username or password"
	case api.IsNetworkError(err):
		return "Unable to reach the server"
	case errors.Is(err, api.ErrInvalidRequest):
		return ErrRequired.Error()
	default:
		return "Login failed"
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the login form centered in the window.
func (m Model) View() string {
	t := m.theme

	label := func(text string, focused bool) string {
		if focused {
			return t.FieldFocused.Render(text)
		}
		return t.FieldLabel.Render(text)
	}

	var b strings.Builder
	b.WriteString(t.PanelTitle.Render("relaychat"))
	b.WriteString("\n")
	b.WriteString(label("Username", m.focus == fieldUsername) + m.username.View())
	b.WriteString("\n")
	b.WriteString(label("Password", m.focus == fieldPassword) + m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " " + t.Hint.Render("Signing in..."))
	case m.err != "":
		b.WriteString(t.ErrorStyle.Render(styles.StatusIndicators.Error + " " + m.err))
	default:
		b.WriteString(t.Hint.Render("tab: switch field  enter: log in  ctrl+c: quit"))
	}

	panel := t.Panel.Width(48).Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}
	return panel
}
