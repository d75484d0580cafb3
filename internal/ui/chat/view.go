// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/util"
)

// Placeholder lines for the timeline pane.
const (
	resolvingText = "Resolving identity..."
	emptyText     = "No messages yet"
	noPeerText    = "Select a peer to start chatting"
)

// =============================================================================
// TIMELINE
// =============================================================================

// renderTimeline renders the visible entries and returns the content and how
// many entries it holds. Nothing is rendered before the identity is known,
// since orientation depends on it.
func (m *Model) renderTimeline() (string, int) {
	width := m.viewport.Width
	s := m.snap
	if s.Identity == nil {
		return m.centered(resolvingText, width), 0
	}

	visible := s.Visible()
	if len(visible) == 0 {
		text := emptyText
		if s.Peer == nil {
			text = noPeerText
		}
		return m.centered(text, width), 0
	}

	blocks := make([]string, 0, len(visible))
	for _, e := range visible {
		k := e.Key()
		block, ok := m.renderCache[k]
		if !ok {
			block = m.renderEntry(e, s.Identity, width)
			m.renderCache[k] = block
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n"), len(visible)
}

func (m *Model) centered(text string, width int) string {
	line := m.theme.EmptyTimeline.Render(text)
	if width <= 0 {
		return line
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
}

// renderEntry renders one message as a bubble, right aligned when we sent
// it and left aligned otherwise.
func (m *Model) renderEntry(e model.Entry, id *model.Identity, width int) string {
	msg := e.Message
	outgoing := model.Orient(msg, id) == model.Outgoing

	header := m.theme.SenderName.Render(util.Truncate(util.SanitizeDisplay(msg.Sender), 24))
	if !outgoing && msg.Receiver != "" && msg.Receiver != id.Username {
		header += m.theme.Timestamp.Render(" to " + util.Truncate(util.SanitizeDisplay(msg.Receiver), 24))
	}
	if m.showTimestamps && !msg.SentAt.IsZero() {
		header += " " + m.theme.Timestamp.Render(msg.SentAt.Local().Format("15:04"))
	}
	if outgoing && msg.CorrelationID != "" && !e.Acknowledged() {
		header += m.theme.Timestamp.Render(" ...")
	}

	maxWidth := bubbleWidth(width)
	body := m.renderBody(msg, maxWidth)

	style := m.theme.IncomingBubble
	if outgoing {
		style = m.theme.OutgoingBubble
	}
	// Frame is border plus horizontal padding.
	frame := style.GetHorizontalFrameSize()
	inner := lipgloss.Width(body)
	if inner > maxWidth-frame {
		inner = maxWidth - frame
	}
	if inner < 1 {
		inner = 1
	}
	bubble := style.Width(inner + style.GetHorizontalPadding()).Render(body)

	align := lipgloss.Left
	if outgoing {
		align = lipgloss.Right
	}
	block := lipgloss.JoinVertical(align, header, bubble)
	if width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(width, align, block)
}

func (m *Model) renderBody(msg model.ChatMessage, maxWidth int) string {
	if msg.IsDeleted() {
		return m.theme.Hint.Render("message deleted")
	}
	body := util.SanitizeDisplay(msg.MessageBody)
	if m.markdown != nil {
		out, err := m.markdown.Render(body)
		if err == nil {
			return strings.Trim(out, "\n")
		}
		m.log.Debug("markdown render failed, showing plain text", zap.Error(err))
	}
	return lipgloss.NewStyle().MaxWidth(maxWidth).Width(min(lipgloss.Width(body), maxWidth)).Render(body)
}

// bubbleWidth is the widest a bubble may be in a pane of width columns.
func bubbleWidth(width int) int {
	w := width * 3 / 4
	if w < 20 {
		w = 20
	}
	return w
}

func newMarkdownRenderer(dark bool, wrap int, log *zap.Logger) *glamour.TermRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	return buildMarkdownRenderer(log, glamour.WithStandardStyle(style), glamour.WithWordWrap(wrap))
}

// buildMarkdownRenderer returns nil, and bodies render as plain text, when
// glamour rejects the options.
func buildMarkdownRenderer(log *zap.Logger, opts ...glamour.TermRendererOption) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		log.Warn("markdown rendering disabled", zap.Error(err))
		return nil
	}
	return r
}

// =============================================================================
// PEER LIST
// =============================================================================

func (m Model) renderPeers(height int) string {
	t := m.theme
	inner := m.sidebarWidth - t.Sidebar.GetHorizontalFrameSize()

	style := t.Sidebar
	if m.focus == PanePeers {
		style = t.SidebarFocused
	}
	h := height - style.GetVerticalFrameSize()
	if h < 1 {
		h = 1
	}

	var b strings.Builder
	b.WriteString(t.SidebarTitle.Render("Peers"))
	b.WriteString("\n")

	peers := m.peers.Peers()
	switch {
	case m.peers.Err() != nil:
		b.WriteString(t.ErrorStyle.Render("Directory unavailable"))
	case len(peers) == 0:
		b.WriteString(t.Hint.Render("No peers"))
	default:
		selected := m.peers.SelectedIndex()
		start, end := peerWindow(len(peers), selected, h-1)
		for i := start; i < end; i++ {
			name := util.PadRight(util.Truncate(util.SanitizeDisplay(peers[i].Username), inner-2), inner-2)
			if i == selected {
				b.WriteString(t.PeerItemSelected.Render("> " + name))
			} else {
				b.WriteString(t.PeerItem.Render("  " + name))
			}
			b.WriteString("\n")
		}
	}

	return style.Width(inner + style.GetHorizontalPadding()).Height(h).MaxHeight(h + style.GetVerticalFrameSize()).
		Render(strings.TrimRight(b.String(), "\n"))
}

// peerWindow returns the [start, end) range of n peers that fits in rows
// lines and contains selected.
func peerWindow(n, selected, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	if start > n-rows {
		start = n - rows
	}
	return start, start + rows
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the peer list, timeline, compose box and status bar.
func (m Model) View() string {
	t := m.theme

	inputStyle := t.InputContainer
	if m.focus == PaneCompose {
		inputStyle = t.InputContainerFocused
	}
	inputBox := inputStyle.Width(max(m.viewport.Width-inputStyle.GetHorizontalBorderSize(), 1)).Render(m.input.View())

	main := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), inputBox)
	body := main
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderPeers(lipgloss.Height(main)), main)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.status.View())
}
