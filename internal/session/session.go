// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/transport"
)

// maxPending bounds how many unacknowledged correlation ids are remembered.
const maxPending = 512

// =============================================================================
// STATE
// =============================================================================

// State is the connection state of a session.
type State int

const (
	// Idle: no identity bound.
	Idle State = iota
	// Connecting: identity known, handshake in flight.
	Connecting
	// Open: connection ready, send and receive enabled.
	Open
	// Closed: connection ended; terminal until an identity is bound again.
	Closed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what changed.
type EventKind int

const (
	EventState EventKind = iota
	EventMessage
	EventAck
	EventPeer
	EventTyping
	EventError
)

// Event notifies that session state changed. Consumers re-read Snapshot
// rather than reconstructing state from events.
type Event struct {
	Kind       EventKind
	State      State
	Message    model.ChatMessage
	Err        error
	Generation uint64
}

// Snapshot is a consistent copy of session state.
type Snapshot struct {
	State      State
	Identity   *model.Identity
	Peer       *model.Peer
	Policy     model.FilterPolicy
	Entries    []model.Entry
	Typing     bool
	Err        error
	Generation uint64
}

// Visible returns the entries to render under the snapshot's policy.
func (s Snapshot) Visible() []model.Entry {
	return model.Visible(s.Entries, s.Policy, s.Identity, s.Peer)
}

// CanSend reports whether Send would pass its state checks.
func (s Snapshot) CanSend() bool {
	return s.State == Open && s.Identity != nil && s.Peer != nil
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds session options.
type Config struct {
	// Dialer opens relay connections. Required.
	Dialer transport.Dialer

	// URLTemplate is the relay address with a {user_id} placeholder.
	URLTemplate string

	// Policy is the initial filter policy (default: merged).
	Policy model.FilterPolicy

	// SuppressEcho tags outgoing messages with a correlation id and treats an
	// inbound frame carrying a pending id as the relay's copy of our send.
	SuppressEcho bool

	// SendRate and SendBurst limit outgoing messages (default: 5/s, burst 10).
	SendRate  float64
	SendBurst int

	// TypingReset is the typing indicator idle delay (default: 1s).
	TypingReset time.Duration

	// EventBuffer is the Events channel capacity (default: 64).
	EventBuffer int

	Logger *zap.Logger
	Now    func() time.Time
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the messaging session. It is safe for concurrent use.
type Session struct {
	dialer       transport.Dialer
	template     string
	suppressEcho bool
	log          *zap.Logger
	now          func() time.Time

	// bindMu serializes Bind calls. Teardown does not take it, so it can
	// cancel a dial in progress.
	bindMu sync.Mutex

	mu           sync.Mutex
	state        State
	identity     *model.Identity
	peer         *model.Peer
	policy       model.FilterPolicy
	timeline     *model.Timeline
	conn         transport.Conn
	gen          uint64
	cancelDial   context.CancelFunc
	pending      map[string]uint64
	pendingOrder []string
	limiter      *rate.Limiter
	lastErr      error
	closed       bool

	typing  *Typing
	events  chan Event
	readers sync.WaitGroup
}

// New creates an Idle session.
func New(cfg Config) *Session {
	if cfg.Policy == "" {
		cfg.Policy = model.PolicyMerged
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 5
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 10
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Session{
		dialer:       cfg.Dialer,
		template:     cfg.URLTemplate,
		suppressEcho: cfg.SuppressEcho,
		log:          cfg.Logger.Named("session"),
		now:          cfg.Now,
		state:        Idle,
		policy:       cfg.Policy,
		timeline:     model.NewTimeline(),
		pending:      make(map[string]uint64),
		limiter:      rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		events:       make(chan Event, cfg.EventBuffer),
	}
	s.typing = NewTyping(cfg.TypingReset, s.typingChanged)
	return s
}

// Events delivers change notifications. The channel is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events
}

// emitLocked queues an event without blocking. When the buffer is full the
// consumer already has a wakeup pending, and it reads Snapshot on wakeup,
// so the dropped event carries nothing it would miss. s.mu must be held.
func (s *Session) emitLocked(ev Event) {
	if s.closed {
		return
	}
	ev.Generation = s.gen
	if ev.Kind == EventState {
		ev.State = s.state
	}
	select {
	case s.events <- ev:
	default:
		s.log.Debug("event buffer full, dropping", zap.Int("kind", int(ev.Kind)))
	}
}

// =============================================================================
// BINDING
// =============================================================================

// Bind attaches the session to id and opens its connection. Any previous
// connection is closed before the new dial starts. Binding the identity that
// is already Connecting or Open is a no-op. Binding a different user starts a
// fresh timeline; binding the same user again (after Closed) keeps it.
// A nil identity tears the session down to Idle.
//
// Bind returns once the dial has finished. If teardown or another Bind
// happens meanwhile, it returns ErrSuperseded and the new connection, if
// any, is closed.
func (s *Session) Bind(ctx context.Context, id *model.Identity) error {
	if id == nil {
		s.Clear()
		return nil
	}

	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.identity.Same(id) && (s.state == Connecting || s.state == Open) {
		s.mu.Unlock()
		return nil
	}
	if s.dialer == nil {
		s.mu.Unlock()
		return errors.New("session has no dialer")
	}

	old := s.detachLocked()
	if !s.identity.Same(id) {
		s.resetTimelineLocked()
	}
	idCopy := *id
	s.identity = &idCopy
	s.state = Connecting
	s.lastErr = nil
	s.gen++
	gen := s.gen
	dialCtx, cancel := context.WithCancel(ctx)
	s.cancelDial = cancel
	s.emitLocked(Event{Kind: EventState})
	s.mu.Unlock()

	if old != nil {
		s.closeConn(old, "identity changed")
	}

	target := transport.Target(s.template, idCopy.UserID)
	s.log.Info("connecting", zap.String("username", idCopy.Username), zap.Uint64("generation", gen))
	conn, err := s.dialer.Dial(dialCtx, target)
	cancel()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		if conn != nil {
			s.closeConn(conn, "superseded during dial")
		}
		return ErrSuperseded
	}
	s.cancelDial = nil
	if err != nil {
		s.state = Closed
		s.lastErr = fmt.Errorf("%w: %v", ErrTransportClosed, err)
		s.emitLocked(Event{Kind: EventState})
		s.emitLocked(Event{Kind: EventError, Err: s.lastErr})
		s.mu.Unlock()
		s.log.Warn("connect failed", zap.String("target", target), zap.Error(err))
		return s.lastErr
	}

	s.conn = conn
	s.state = Open
	s.readers.Add(1)
	go s.readLoop(gen, conn)
	s.emitLocked(Event{Kind: EventState})
	s.mu.Unlock()

	s.log.Info("connection open", zap.String("username", idCopy.Username), zap.Uint64("generation", gen))
	return nil
}

// detachLocked cancels any dial and removes the current connection from the
// session, returning it for the caller to close outside the lock.
func (s *Session) detachLocked() transport.Conn {
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	old := s.conn
	s.conn = nil
	s.typing.Stop()
	return old
}

func (s *Session) resetTimelineLocked() {
	s.timeline = model.NewTimeline()
	s.pending = make(map[string]uint64)
	s.pendingOrder = nil
}

func (s *Session) closeConn(c transport.Conn, reason string) {
	if err := c.Close(); err != nil {
		s.log.Debug("close error", zap.String("reason", reason), zap.Error(err))
	}
	s.log.Info("connection closed", zap.String("reason", reason))
}

// Clear tears the session down to Idle: any dial is cancelled, the connection
// is closed before Clear returns, pending timers are stopped and the
// identity and timeline are dropped.
func (s *Session) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	old := s.teardownLocked()
	s.emitLocked(Event{Kind: EventState})
	s.mu.Unlock()

	if old != nil {
		s.closeConn(old, "teardown")
	}
}

func (s *Session) teardownLocked() transport.Conn {
	old := s.detachLocked()
	s.gen++
	s.identity = nil
	s.state = Idle
	s.lastErr = nil
	s.resetTimelineLocked()
	return old
}

// Close tears the session down and closes the Events channel. It waits for
// the connection's reader to exit. The session cannot be reused.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	old := s.teardownLocked()
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	if old != nil {
		s.closeConn(old, "session closed")
	}
	s.readers.Wait()
}

// =============================================================================
// RECEIVE
// =============================================================================

func (s *Session) readLoop(gen uint64, conn transport.Conn) {
	defer s.readers.Done()
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.handleClosed(gen, conn, err)
			return
		}
		s.handleFrame(gen, data)
	}
}

// handleFrame applies one inbound frame.
func (s *Session) handleFrame(gen uint64, data []byte) {
	var msg model.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Warn("discarding malformed frame", zap.Error(err), zap.Int("bytes", len(data)))
		s.mu.Lock()
		if s.gen == gen {
			s.emitLocked(Event{Kind: EventError, Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)})
		}
		s.mu.Unlock()
		return
	}
	s.receive(gen, msg)
}

func (s *Session) receive(gen uint64, msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || s.state != Open {
		s.log.Debug("discarding frame from superseded connection", zap.Uint64("generation", gen))
		return
	}
	if model.IsControl(msg) {
		s.log.Debug("relay ready signal")
		return
	}

	if s.suppressEcho && msg.CorrelationID != "" {
		if seq, ok := s.pending[msg.CorrelationID]; ok {
			delete(s.pending, msg.CorrelationID)
			s.timeline.Acknowledge(seq, msg.ID)
			s.emitLocked(Event{Kind: EventAck, Message: msg})
			return
		}
	}

	if msg.SentAt.IsZero() {
		msg.SentAt = s.now()
	}
	s.timeline.Append(msg, false)
	s.emitLocked(Event{Kind: EventMessage, Message: msg})
}

func (s *Session) handleClosed(gen uint64, conn transport.Conn, err error) {
	s.mu.Lock()
	if s.gen != gen {
		// Closed deliberately by a newer bind or teardown.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.state = Closed
	s.typing.Stop()
	if errors.Is(err, transport.ErrClosed) {
		s.lastErr = err
	} else {
		s.lastErr = fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	s.emitLocked(Event{Kind: EventState})
	s.emitLocked(Event{Kind: EventError, Err: s.lastErr})
	s.mu.Unlock()

	_ = conn.Close()
	s.log.Warn("connection ended", zap.Uint64("generation", gen), zap.Error(err))
}

// =============================================================================
// SEND
// =============================================================================

// Send transmits body to the selected peer and appends it to the timeline
// without waiting for the relay. It is rejected, with nothing sent or
// appended, when the trimmed body is empty or reserved, when no identity or
// peer is set, when the session is not Open, or when the send rate is
// exceeded.
//
// The write happens under the session lock, so a message is always sent on
// the connection of the identity named as its sender.
func (s *Session) Send(body string) (model.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.identity == nil:
		return model.ChatMessage{}, ErrMissingIdentity
	case s.peer == nil:
		return model.ChatMessage{}, ErrNoPeer
	case s.state != Open || s.conn == nil:
		return model.ChatMessage{}, ErrNotOpen
	case body == model.ControlSentinel:
		return model.ChatMessage{}, ErrReservedBody
	case !s.limiter.Allow():
		return model.ChatMessage{}, ErrRateLimited
	}

	msg := model.ChatMessage{
		Sender:      s.identity.Username,
		Receiver:    s.peer.Username,
		MessageBody: body,
		SentAt:      s.now().UTC(),
	}
	if s.suppressEcho {
		msg.CorrelationID = uuid.NewString()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("encode message: %w", err)
	}
	if err := s.conn.WriteMessage(data); err != nil {
		s.log.Warn("send failed", zap.Error(err))
		if errors.Is(err, transport.ErrClosed) {
			return model.ChatMessage{}, err
		}
		return model.ChatMessage{}, fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}

	seq := s.timeline.Append(msg, true)
	if msg.CorrelationID != "" {
		s.trackPendingLocked(msg.CorrelationID, seq)
	}
	s.typing.Stop()
	s.emitLocked(Event{Kind: EventMessage, Message: msg})
	return msg, nil
}

func (s *Session) trackPendingLocked(id string, seq uint64) {
	s.pending[id] = seq
	s.pendingOrder = append(s.pendingOrder, id)
	if len(s.pendingOrder) > maxPending {
		drop := s.pendingOrder[0]
		s.pendingOrder = s.pendingOrder[1:]
		delete(s.pending, drop)
	}
}

// =============================================================================
// PEER, POLICY, TYPING
// =============================================================================

// SelectPeer changes the recipient of future sends. The connection and the
// timeline are untouched.
func (s *Session) SelectPeer(p *model.Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		s.peer = nil
	} else {
		cp := *p
		s.peer = &cp
	}
	s.emitLocked(Event{Kind: EventPeer})
}

// SetPolicy changes how Snapshot.Visible filters the timeline.
func (s *Session) SetPolicy(p model.FilterPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
	s.emitLocked(Event{Kind: EventPeer})
}

// Typing marks the local user as typing. The indicator clears itself after
// the configured idle delay.
// The check and the re-arm share s.mu so a concurrent Clear cannot be
// followed by a live timer.
func (s *Session) Typing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || s.closed {
		return
	}
	if s.typing.arm() {
		s.emitLocked(Event{Kind: EventTyping})
	}
}

func (s *Session) typingChanged(bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(Event{Kind: EventTyping})
}

// =============================================================================
// INSPECTION
// =============================================================================

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		Policy:     s.policy,
		Entries:    s.timeline.Entries(),
		Typing:     s.typing.Active(),
		Err:        s.lastErr,
		Generation: s.gen,
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	if s.peer != nil {
		p := *s.peer
		snap.Peer = &p
	}
	return snap
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
