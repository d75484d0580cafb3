// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/relaychat-tui/internal/directory"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/session"
	"github.com/jeranaias/relaychat-tui/internal/ui/components"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// fakeSession is an in-memory Session. It never touches a network.
type fakeSession struct {
	snap     session.Snapshot
	timeline *model.Timeline
	sent     []string
	sendErr  error
	typing   int
	selected []*model.Peer
}

func newFakeSession(id *model.Identity, state session.State) *fakeSession {
	return &fakeSession{
		snap:     session.Snapshot{State: state, Identity: id, Policy: model.PolicyMerged},
		timeline: model.NewTimeline(),
	}
}

func (f *fakeSession) Snapshot() session.Snapshot {
	s := f.snap
	s.Entries = f.timeline.Entries()
	return s
}

func (f *fakeSession) SelectPeer(p *model.Peer) {
	f.selected = append(f.selected, p)
	f.snap.Peer = p
}

func (f *fakeSession) SetPolicy(p model.FilterPolicy) { f.snap.Policy = p }
func (f *fakeSession) Typing()                        { f.typing++ }

func (f *fakeSession) Send(body string) (model.ChatMessage, error) {
	if f.sendErr != nil {
		return model.ChatMessage{}, f.sendErr
	}
	f.sent = append(f.sent, body)
	msg := model.ChatMessage{Sender: f.snap.Identity.Username, Receiver: f.snap.Peer.Username, MessageBody: body, SentAt: time.Now()}
	f.timeline.Append(msg, true)
	return msg, nil
}

func (f *fakeSession) receive(from, body string) {
	f.timeline.Append(model.ChatMessage{Sender: from, Receiver: f.snap.Identity.Username, MessageBody: body, SentAt: time.Now()}, false)
}

var me = &model.Identity{UserID: 1, Username: "me"}

func newView(t *testing.T, sess *fakeSession, peers []model.Peer) (Model, *components.ToastManager) {
	t.Helper()
	set := directory.NewPeerSet()
	set.Replace(peers)
	toasts := components.NewToastManager()
	m := New(Options{
		Theme:          styles.NewTheme("dark"),
		Session:        sess,
		Peers:          set,
		Toasts:         toasts,
		ShowTimestamps: false,
	})
	m.PeersChanged()
	m.SetSize(100, 20)
	return m, toasts
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeDraft(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(keyRunes(string(r)))
	}
	return m
}

var twoPeers = []model.Peer{{ID: 2, Username: "amy"}, {ID: 3, Username: "bob"}}

// =============================================================================
// RENDERING
// =============================================================================

func TestView_NoMessagesBeforeIdentity(t *testing.T) {
	sess := newFakeSession(nil, session.Idle)
	sess.timeline.Append(model.ChatMessage{Sender: "amy", MessageBody: "early"}, false)
	m, _ := newView(t, sess, twoPeers)

	out := m.View()
	assert.Contains(t, out, resolvingText)
	assert.NotContains(t, out, "early")
	assert.Contains(t, m.input.Placeholder, "sending disabled")
}

func TestView_Orientation(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)

	out := m.renderEntry(model.Entry{Message: model.ChatMessage{Sender: "me", Receiver: "amy", MessageBody: "mine"}}, me, 80)
	in := m.renderEntry(model.Entry{Message: model.ChatMessage{Sender: "amy", Receiver: "me", MessageBody: "theirs"}}, me, 80)

	assert.True(t, strings.HasPrefix(strings.Split(out, "\n")[0], " "), "outgoing should be right aligned")
	assert.False(t, strings.HasPrefix(strings.Split(in, "\n")[0], " "), "incoming should be left aligned")
}

func TestView_ControlSentinelNeverRendered(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	sess.timeline.Append(model.ChatMessage{MessageBody: model.ControlSentinel}, false)
	sess.receive("amy", "hello")
	m, _ := newView(t, sess, twoPeers)

	out := m.View()
	assert.NotContains(t, out, model.ControlSentinel)
	assert.Contains(t, out, "hello")
}

func TestView_SanitizesBodies(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	sess.receive("amy", "hi\x1b[2Jthere")
	m, _ := newView(t, sess, twoPeers)

	assert.NotContains(t, m.View(), "\x1b[2J")
}

func TestMarkdownRendererFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	r := buildMarkdownRenderer(zap.New(core), glamour.WithStylePath("/nonexistent/relaychat-style.json"))

	assert.Nil(t, r)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "markdown rendering disabled", logs.All()[0].Message)
}

func TestView_ScrollsToLatestOnLengthChange(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	for i := 0; i < 30; i++ {
		sess.receive("amy", fmt.Sprintf("message %d", i))
	}
	m, _ := newView(t, sess, twoPeers)
	require.True(t, m.viewport.AtBottom())

	m.viewport.GotoTop()
	m, _ = m.Update(session.EventMsg{Event: session.Event{Kind: session.EventPeer}})
	assert.False(t, m.viewport.AtBottom(), "refresh without new messages keeps the scroll position")

	sess.receive("amy", "latest")
	m, _ = m.Update(session.EventMsg{Event: session.Event{Kind: session.EventMessage}})
	assert.True(t, m.viewport.AtBottom())
}

func TestView_PeerList(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)

	out := m.View()
	assert.Contains(t, out, "> amy")
	assert.Contains(t, out, "bob")
}

func TestView_RepeatedWireIDsRenderEachMessage(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)

	sess.timeline.Append(model.ChatMessage{ID: 1, Sender: "amy", Receiver: "me", MessageBody: "first-from-amy"}, false)
	m.Refresh()
	sess.timeline.Append(model.ChatMessage{ID: 1, Sender: "bob", Receiver: "me", MessageBody: "second-from-bob"}, false)
	m.Refresh()

	out := m.View()
	assert.Contains(t, out, "first-from-amy")
	assert.Contains(t, out, "second-from-bob")
}

func TestView_AckClearsPendingMarker(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	sess.snap.Peer = &twoPeers[0]
	m, _ := newView(t, sess, twoPeers)

	seq := sess.timeline.Append(model.ChatMessage{Sender: "me", Receiver: "amy", MessageBody: "hello", CorrelationID: "c1"}, true)
	m.Refresh()
	assert.Contains(t, m.viewport.View(), "me ...")

	require.True(t, sess.timeline.Acknowledge(seq, 0))
	m.Refresh()
	assert.NotContains(t, m.viewport.View(), "me ...")
	assert.Contains(t, m.viewport.View(), "hello")
}

func TestView_PeerListScrollsToSelection(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	peers := make([]model.Peer, 40)
	for i := range peers {
		peers[i] = model.Peer{ID: int64(i + 10), Username: fmt.Sprintf("peer%02d", i)}
	}
	m, _ := newView(t, sess, peers)
	m.peers.Move(len(peers))
	m.Refresh()

	out := m.View()
	assert.Contains(t, out, "> peer39")
	assert.NotContains(t, out, "peer00")
	assert.LessOrEqual(t, strings.Count(out, "\n")+1, 20)
}

func TestPeerWindow(t *testing.T) {
	tests := []struct {
		n, selected, rows int
		start, end        int
	}{
		{n: 3, selected: 0, rows: 10, start: 0, end: 3},
		{n: 30, selected: 0, rows: 10, start: 0, end: 10},
		{n: 30, selected: 9, rows: 10, start: 0, end: 10},
		{n: 30, selected: 10, rows: 10, start: 1, end: 11},
		{n: 30, selected: 29, rows: 10, start: 20, end: 30},
		{n: 30, selected: -1, rows: 10, start: 0, end: 10},
		{n: 5, selected: 4, rows: 0, start: 4, end: 5},
	}
	for _, tt := range tests {
		start, end := peerWindow(tt.n, tt.selected, tt.rows)
		assert.Equal(t, tt.start, start, "%+v", tt)
		assert.Equal(t, tt.end, end, "%+v", tt)
	}
}

func TestView_NarrowHidesSidebar(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)
	m.SetSize(50, 20)

	assert.NotContains(t, m.View(), "Peers")
}

// =============================================================================
// INPUT
// =============================================================================

func TestSend_Success(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)

	m = typeDraft(m, "hello")
	assert.Greater(t, sess.typing, 0)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	sent, ok := cmd().(session.SentMsg)
	require.True(t, ok)
	require.NoError(t, sent.Err)

	m, _ = m.Update(sent)
	assert.Equal(t, "", m.Draft())
	assert.Equal(t, []string{"hello"}, sess.sent)
	assert.Contains(t, m.View(), "hello")
}

func TestSend_DisabledUnlessOpen(t *testing.T) {
	for _, state := range []session.State{session.Connecting, session.Closed} {
		sess := newFakeSession(me, state)
		m, toasts := newView(t, sess, twoPeers)

		m = typeDraft(m, "draft")
		m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd, state.String())
		assert.Equal(t, "draft", m.Draft(), state.String())
		assert.Empty(t, sess.sent)
		assert.Equal(t, 1, toasts.Len())
		assert.Contains(t, m.input.Placeholder, "sending disabled")
	}
}

func TestSend_RejectedKeepsDraft(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, toasts := newView(t, sess, twoPeers)
	m = typeDraft(m, "draft")

	sess.sendErr = session.ErrNotOpen
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.Equal(t, "draft", m.Draft())
	require.Equal(t, 1, toasts.Len())
	assert.Equal(t, components.ToastError, toasts.Toasts()[0].Kind)
}

func TestSend_BlankIgnored(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)
	m = typeDraft(m, "   ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestPeerNavigation(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, _ := newView(t, sess, twoPeers)
	require.Equal(t, "amy", sess.snap.Peer.Username)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, PanePeers, m.Focus())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "bob", sess.snap.Peer.Username)
	assert.Contains(t, m.View(), "> bob")

	// Typing in the peer pane does not reach the draft.
	m, _ = m.Update(keyRunes("x"))
	assert.Equal(t, "", m.Draft())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, PaneCompose, m.Focus())
}

func TestFilterToggle(t *testing.T) {
	sess := newFakeSession(me, session.Open)
	m, toasts := newView(t, sess, twoPeers)

	sess.receive("bob", "from bob")
	sess.receive("amy", "from amy")
	m.Refresh()
	require.Contains(t, m.View(), "from bob")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	assert.Equal(t, model.PolicyPeer, sess.snap.Policy)
	assert.NotContains(t, m.View(), "from bob")
	assert.Contains(t, m.View(), "from amy")
	assert.Equal(t, 1, toasts.Len())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	assert.Equal(t, model.PolicyMerged, sess.snap.Policy)
	assert.Contains(t, m.View(), "from bob")
}

func TestStatusBarReflectsSession(t *testing.T) {
	sess := newFakeSession(me, session.Closed)
	m, _ := newView(t, sess, twoPeers)
	sess.snap.Typing = true
	m.Refresh()

	out := m.View()
	assert.Contains(t, out, "disconnected")
	assert.Contains(t, out, "typing...")
}
