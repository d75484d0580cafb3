// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/directory"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/session"
	"github.com/jeranaias/relaychat-tui/internal/ui/components"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// Session is the part of session.Session the view drives.
type Session interface {
	Snapshot() session.Snapshot
	SelectPeer(p *model.Peer)
	SetPolicy(p model.FilterPolicy)
	Typing()
	Send(body string) (model.ChatMessage, error)
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Pane identifies which pane has keyboard focus.
type Pane int

const (
	PaneCompose Pane = iota
	PanePeers
)

// Options configures the conversation view.
type Options struct {
	Theme          *styles.Theme
	Session        Session
	Peers          *directory.PeerSet
	Toasts         *components.ToastManager
	SidebarWidth   int
	ShowTimestamps bool
	RenderMarkdown bool
	// Shortcuts replace the status bar's default key hints.
	Shortcuts []components.Shortcut
	Logger    *zap.Logger
}

// Model is the Bubble Tea model for the conversation view.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	sess   Session
	peers  *directory.PeerSet
	toasts *components.ToastManager
	log    *zap.Logger

	viewport viewport.Model
	input    textinput.Model
	status   *components.StatusBar
	focus    Pane

	width          int
	height         int
	sidebarWidth   int
	showTimestamps bool
	renderMarkdown bool
	markdown       *glamour.TermRenderer

	snap        session.Snapshot
	lastVisible int
	// Rendered bubbles by entry key, valid for cacheOwner at cacheWidth.
	renderCache map[string]string
	cacheOwner  string
	cacheWidth  int
}

// New creates the conversation view.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Peers == nil {
		opts.Peers = directory.NewPeerSet()
	}
	if opts.Toasts == nil {
		opts.Toasts = components.NewToastManager()
	}
	if opts.SidebarWidth <= 0 {
		opts.SidebarWidth = 24
	}

	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = opts.Theme.InputPrompt
	in.PlaceholderStyle = opts.Theme.InputPlaceholder
	in.CharLimit = 4000
	in.Focus()

	m := Model{
		theme:          opts.Theme,
		keys:           DefaultKeyMap(),
		sess:           opts.Session,
		peers:          opts.Peers,
		toasts:         opts.Toasts,
		log:            opts.Logger.Named("chat"),
		viewport:       viewport.New(0, 0),
		input:          in,
		status:         components.NewStatusBar(opts.Theme),
		sidebarWidth:   opts.SidebarWidth,
		showTimestamps: opts.ShowTimestamps,
		renderMarkdown: opts.RenderMarkdown,
		renderCache:    make(map[string]string),
		lastVisible:    -1,
	}
	if opts.Shortcuts != nil {
		m.status.Shortcuts = opts.Shortcuts
	}
	m.Refresh()
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Focus returns the focused pane.
func (m Model) Focus() Pane {
	return m.focus
}

// Draft returns the compose box text.
func (m Model) Draft() string {
	return m.input.Value()
}

// Snapshot returns the session state the view last rendered.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

// =============================================================================
// STATE SYNC
// =============================================================================

// Refresh re-reads the session and rebuilds the timeline. The viewport jumps
// to the latest message whenever the number of visible messages changed.
func (m *Model) Refresh() {
	m.snap = m.sess.Snapshot()
	m.updatePlaceholder()
	m.updateStatus()

	owner := ""
	if m.snap.Identity != nil {
		owner = m.snap.Identity.Key()
	}
	if owner != m.cacheOwner || m.cacheWidth != m.viewport.Width {
		m.renderCache = make(map[string]string)
		m.cacheOwner = owner
		m.cacheWidth = m.viewport.Width
	}

	content, visible := m.renderTimeline()
	m.viewport.SetContent(content)
	if visible != m.lastVisible {
		m.viewport.GotoBottom()
		m.lastVisible = visible
	}
}

// PeersChanged pushes the directory selection to the session after the
// peer set was replaced or reset.
func (m *Model) PeersChanged() {
	m.sess.SelectPeer(m.peers.Selected())
	m.Refresh()
}

func (m *Model) updatePlaceholder() {
	s := m.snap
	switch {
	case s.Identity == nil:
		m.input.Placeholder = "Signing in... sending disabled"
	case s.State == session.Connecting:
		m.input.Placeholder = "Connecting... sending disabled"
	case s.State != session.Open:
		m.input.Placeholder = "Disconnected, sending disabled"
	case s.Peer == nil:
		m.input.Placeholder = "Select a peer to start chatting"
	default:
		m.input.Placeholder = "Message " + s.Peer.Username
	}
}

func (m *Model) updateStatus() {
	s := m.snap
	m.status.State = s.State.String()
	m.status.Username = ""
	if s.Identity != nil {
		m.status.Username = s.Identity.Username
	}
	m.status.Peer = ""
	if s.Peer != nil {
		m.status.Peer = s.Peer.Username
	}
	m.status.Policy = string(s.Policy)
	m.status.Typing = s.Typing
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles input, resizes and session notifications.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case session.EventMsg:
		m.Refresh()
		return m, nil

	case session.SentMsg:
		return m.handleSent(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		next := m.snap.Policy.Toggle()
		m.sess.SetPolicy(next)
		if next == model.PolicyPeer {
			m.toasts.AddStatus("Showing only the selected conversation")
		} else {
			m.toasts.AddStatus("Showing all messages")
		}
		m.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.focus == PanePeers {
		switch {
		case key.Matches(msg, m.keys.PeerUp):
			m.movePeer(-1)
		case key.Matches(msg, m.keys.PeerDown):
			m.movePeer(1)
		case key.Matches(msg, m.keys.Send):
			m.toggleFocus()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before && m.snap.Identity != nil {
		m.sess.Typing()
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == PaneCompose {
		m.focus = PanePeers
		m.input.Blur()
	} else {
		m.focus = PaneCompose
		m.input.Focus()
	}
}

func (m *Model) movePeer(delta int) {
	m.peers.Move(delta)
	m.sess.SelectPeer(m.peers.Selected())
	m.Refresh()
}

// send submits the draft. The draft stays in the box until the session
// accepts it.
func (m Model) send() (Model, tea.Cmd) {
	body := m.input.Value()
	if strings.TrimSpace(body) == "" {
		return m, nil
	}
	if !m.snap.CanSend() {
		m.updatePlaceholder()
		m.toasts.AddWarning(m.input.Placeholder)
		return m, nil
	}
	return m, session.SendCmd(m.sess, body)
}

func (m Model) handleSent(msg session.SentMsg) Model {
	if msg.Err == nil {
		if m.input.Value() == msg.Body {
			m.input.Reset()
		}
		m.Refresh()
		return m
	}

	m.log.Warn("send rejected", zap.Error(msg.Err))
	switch {
	case errors.Is(msg.Err, session.ErrRateLimited):
		m.toasts.AddWarning("Sending too fast, slow down")
	case errors.Is(msg.Err, session.ErrReservedBody):
		m.toasts.AddWarning("That message text is reserved")
	case errors.Is(msg.Err, session.ErrNotOpen), errors.Is(msg.Err, session.ErrTransportClosed):
		m.toasts.AddError("Not connected, message not sent")
	case errors.Is(msg.Err, session.ErrNoPeer):
		m.toasts.AddWarning("Select a peer first")
	case errors.Is(msg.Err, session.ErrEmptyMessage):
	default:
		m.toasts.AddError("Message not sent")
	}
	m.Refresh()
	return m
}

// SetSize lays the view out for a width x height area.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	mainWidth := width
	if m.showSidebar() {
		mainWidth -= m.sidebarWidth
	}
	// Status line and the bordered compose box.
	vpHeight := height - 1 - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = vpHeight
	m.input.Width = mainWidth - 6
	m.status.Width = width

	if m.renderMarkdown {
		m.markdown = newMarkdownRenderer(m.theme.IsDark, bubbleWidth(mainWidth), m.log)
	}
	m.Refresh()
}

func (m Model) showSidebar() bool {
	return m.theme.GetLayoutMode() != styles.LayoutNarrow
}
