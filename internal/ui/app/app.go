// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/config"
	"github.com/jeranaias/relaychat-tui/internal/directory"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/session"
	"github.com/jeranaias/relaychat-tui/internal/storage"
	"github.com/jeranaias/relaychat-tui/internal/transport"
	"github.com/jeranaias/relaychat-tui/internal/ui/chat"
	"github.com/jeranaias/relaychat-tui/internal/ui/components"
	"github.com/jeranaias/relaychat-tui/internal/ui/login"
	"github.com/jeranaias/relaychat-tui/internal/ui/profile"
	"github.com/jeranaias/relaychat-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Auth is the part of api.Client the application uses directly.
type Auth interface {
	login.Authenticator
	Refresh(ctx context.Context, refresh string) (*api.TokenPair, error)
}

// CredentialStore persists the token pair between runs.
type CredentialStore interface {
	Load() (*storage.Credentials, error)
	Save(creds *storage.Credentials) error
	Clear() error
}

// IdentityResolver resolves a credential to the identity it belongs to.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*model.Identity, error)
	ExpiresAt() time.Time
	Invalidate(ctx context.Context) error
}

// PeerLister fetches the user directory.
type PeerLister interface {
	ListPeers(ctx context.Context, self string) ([]model.Peer, error)
}

// ChangeNotifier signals credential file changes made outside the app.
type ChangeNotifier interface {
	Changes() <-chan struct{}
}

// Options wires the application together.
type Options struct {
	Config      *config.Config
	Theme       *styles.Theme
	Auth        Auth
	Credentials CredentialStore
	Identity    IdentityResolver
	Directory   PeerLister
	Session     *session.Session
	// Watcher is optional.
	Watcher ChangeNotifier
	Logger  *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Screen is the top-level screen being shown.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenChat
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenLogin:
		return "login"
	case ScreenChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Model is the root Bubble Tea model. It owns the sign-in flow and routes
// messages to the login, chat and profile views.
type Model struct {
	cfg      *config.Config
	theme    *styles.Theme
	keys     KeyMap
	log      *zap.Logger
	timeout  time.Duration
	auth     Auth
	creds    CredentialStore
	resolver IdentityResolver
	dir      PeerLister
	sess     *session.Session
	watcher  ChangeNotifier

	peers   *directory.PeerSet
	toasts  *components.ToastManager
	login   login.Model
	chat    chat.Model
	profile profile.Model
	spinner spinner.Model

	screen      Screen
	showProfile bool
	width       int
	height      int

	// credential is the access token being resolved or in use. Results for
	// any other token are stale.
	credential   string
	refresh      string
	username     string
	refreshTried bool
	identity     *model.Identity
	quitting     bool
}

// New creates the root model.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := time.Duration(cfg.Server.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	peers := directory.NewPeerSet()
	toasts := components.NewToastManager()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	prof := profile.New(theme)
	prof.SetLoading(true)

	return &Model{
		cfg:      cfg,
		theme:    theme,
		keys:     DefaultKeyMap(),
		log:      log.Named("app"),
		timeout:  timeout,
		auth:     opts.Auth,
		creds:    opts.Credentials,
		resolver: opts.Identity,
		dir:      opts.Directory,
		sess:     opts.Session,
		watcher:  opts.Watcher,
		peers:    peers,
		toasts:   toasts,
		login:    login.New(theme, opts.Auth, timeout),
		chat: chat.New(chat.Options{
			Theme:          theme,
			Session:        opts.Session,
			Peers:          peers,
			Toasts:         toasts,
			SidebarWidth:   cfg.UI.SidebarWidth,
			ShowTimestamps: cfg.UI.ShowTimestamps,
			RenderMarkdown: cfg.UI.RenderMarkdown,
			Logger:         log,
		}),
		profile: prof,
		spinner: sp,
		screen:  ScreenLoading,
	}
}

// Screen returns the screen being shown.
func (m *Model) Screen() Screen {
	return m.screen
}

// Identity returns the identity the app is signed in as, or nil.
func (m *Model) Identity() *model.Identity {
	return m.identity
}

// Init loads the stored credential and starts listening for session events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		session.WaitForEvent(m.sess),
		components.ToastTickCmd(),
		loadCredentialsCmd(m.creds, false),
		watchCmd(m.watcher),
		m.spinner.Tick,
		m.chat.Init(),
	)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.chat.SetSize(msg.Width, max(msg.Height-1, 1))
		m.login, _ = m.login.Update(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.screen == ScreenLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case credentialsLoadedMsg:
		return m.handleCredentials(msg)

	case credentialsChangedMsg:
		m.log.Debug("credential file changed")
		return m, tea.Batch(loadCredentialsCmd(m.creds, true), watchCmd(m.watcher))

	case watchStoppedMsg:
		return m, nil

	case identityResolvedMsg:
		return m.handleResolved(msg)

	case IdentityExpiredMsg:
		if m.credential == "" {
			return m, nil
		}
		m.log.Debug("cached identity expired, resolving again")
		m.profile.SetLoading(true)
		return m, resolveCmd(m.resolver, m.credential, m.timeout)

	case tokensRefreshedMsg:
		return m.handleRefreshed(msg)

	case peersLoadedMsg:
		return m.handlePeers(msg)

	case session.BoundMsg:
		return m.handleBound(msg)

	case session.EventMsg:
		m.handleSessionEvent(msg.Event)
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, tea.Batch(cmd, session.WaitForEvent(m.sess))

	case session.EventsClosedMsg:
		return m, nil

	case session.SentMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd

	case login.SucceededMsg:
		return m.handleLogin(msg)

	case login.FailedMsg:
		m.log.Warn("login failed", zap.Error(msg.Err))
		m.toasts.AddError(login.Describe(msg.Err))
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}

	return m.forward(msg)
}

// forward sends msg to the active screen.
func (m *Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case ScreenLogin:
		m.login, cmd = m.login.Update(msg)
	case ScreenChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sess.Clear()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		if m.showProfile {
			m.showProfile = false
			return m, nil
		}
		if m.toasts.DismissNewest() {
			return m, nil
		}

	case key.Matches(msg, m.keys.Profile):
		if m.screen == ScreenChat {
			m.showProfile = !m.showProfile
			if m.showProfile && m.identity != nil {
				m.profile.SetIdentity(m.identity, m.resolver.ExpiresAt())
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if m.screen == ScreenChat {
			m.signOut()
			m.toasts.AddStatus("Signed out")
		}
		return m, nil
	}

	if m.showProfile {
		return m, nil
	}
	return m.forward(msg)
}

// =============================================================================
// SIGN-IN FLOW
// =============================================================================

func (m *Model) handleCredentials(msg credentialsLoadedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, storage.ErrNoCredentials):
		if msg.reload && m.credential != "" {
			m.log.Info("stored credential removed, signing out")
			m.signOut()
			m.toasts.AddStatus("Signed out in another window")
			return m, nil
		}
		if !msg.reload {
			m.showLogin()
		}
		return m, nil

	case msg.err != nil:
		m.log.Warn("failed to load credentials", zap.Error(msg.err))
		m.toasts.AddError("Could not read stored credentials")
		if !msg.reload {
			m.showLogin()
		}
		return m, nil
	}

	c := msg.creds
	if c.Access == m.credential {
		return m, nil
	}
	if msg.reload {
		m.log.Info("credential replaced, re-resolving identity")
		if err := m.resolver.Invalidate(context.Background()); err != nil {
			m.log.Warn("failed to invalidate identity", zap.Error(err))
		}
	}
	return m, m.adoptCredential(c.Access, c.Refresh, c.Username)
}

// adoptCredential makes access the current credential and resolves it.
func (m *Model) adoptCredential(access, refresh, username string) tea.Cmd {
	m.credential = access
	m.refresh = refresh
	m.refreshTried = false
	if username != "" {
		m.username = username
		m.login.Prefill(username)
	}
	m.profile.SetLoading(true)
	if m.identity == nil {
		m.screen = ScreenLoading
	}
	return resolveCmd(m.resolver, access, m.timeout)
}

func (m *Model) handleResolved(msg identityResolvedMsg) (tea.Model, tea.Cmd) {
	if msg.credential != m.credential {
		m.log.Debug("discarding stale identity result")
		return m, nil
	}

	if msg.err != nil {
		if api.IsAuthError(msg.err) && m.refresh != "" && !m.refreshTried {
			m.refreshTried = true
			m.log.Info("access token rejected, exchanging refresh token")
			return m, refreshCmd(m.auth, m.credential, m.refresh, m.timeout)
		}
		m.log.Warn("identity resolution failed", zap.Error(msg.err))
		m.toasts.AddError(describeResolveError(msg.err))
		m.signOutLocal()
		return m, nil
	}

	return m, m.bindIdentity(msg.identity)
}

func (m *Model) handleRefreshed(msg tokensRefreshedMsg) (tea.Model, tea.Cmd) {
	if msg.credential != m.credential {
		return m, nil
	}
	if msg.err != nil || msg.tokens == nil || msg.tokens.Access == "" {
		m.log.Warn("token refresh failed", zap.Error(msg.err))
		m.toasts.AddError("Session expired, please sign in again")
		m.signOutLocal()
		return m, nil
	}

	refresh := msg.tokens.Refresh
	if refresh == "" {
		refresh = m.refresh
	}
	cmd := m.adoptCredential(msg.tokens.Access, refresh, m.username)
	// Further auth failures for the new token go straight to the login form.
	m.refreshTried = true
	m.saveCredentials()
	return m, cmd
}

func (m *Model) handleLogin(msg login.SucceededMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.login, cmd = m.login.Update(msg)
	if msg.Tokens == nil || msg.Tokens.Access == "" {
		m.toasts.AddError("Login failed")
		return m, cmd
	}
	m.log.Info("signed in", zap.String("username", msg.Username))

	resolve := m.adoptCredential(msg.Tokens.Access, msg.Tokens.Refresh, msg.Username)
	m.saveCredentials()
	return m, tea.Batch(cmd, resolve)
}

// saveCredentials writes the current token pair. The watcher sees the write
// but the reload finds the credential unchanged.
func (m *Model) saveCredentials() {
	err := m.creds.Save(&storage.Credentials{
		Access:   m.credential,
		Refresh:  m.refresh,
		Username: m.username,
	})
	if err != nil {
		m.log.Warn("failed to save credentials", zap.Error(err))
		m.toasts.AddWarning("Signed in, but the session could not be saved")
	}
}

// bindIdentity shows the chat for id. A different user than before gets a
// fresh directory fetch and a new session binding.
func (m *Model) bindIdentity(id *model.Identity) tea.Cmd {
	prev := m.identity
	m.identity = id
	m.profile.SetIdentity(id, m.resolver.ExpiresAt())
	m.screen = ScreenChat
	m.chat.Refresh()

	if prev.Same(id) {
		return nil
	}
	m.log.Info("identity bound", zap.String("username", id.Username), zap.Int64("user_id", id.UserID))
	m.peers.Reset()
	m.chat.PeersChanged()
	return tea.Batch(
		session.BindCmd(context.Background(), m.sess, id),
		listPeersCmd(m.dir, id, m.timeout),
	)
}

func (m *Model) handlePeers(msg peersLoadedMsg) (tea.Model, tea.Cmd) {
	if m.identity == nil || msg.owner != m.identity.Key() {
		m.log.Debug("discarding stale directory result", zap.String("owner", msg.owner))
		return m, nil
	}
	if msg.err != nil {
		m.peers.Fail(msg.err)
		m.toasts.AddError(describeDirectoryError(msg.err))
	} else {
		m.peers.Replace(msg.peers)
	}
	m.chat.PeersChanged()
	return m, nil
}

func (m *Model) handleBound(msg session.BoundMsg) (tea.Model, tea.Cmd) {
	if !msg.Identity.Same(m.identity) {
		return m, nil
	}
	switch {
	case msg.Err == nil:
	case errors.Is(msg.Err, session.ErrSuperseded), errors.Is(msg.Err, session.ErrSessionClosed):
		m.log.Debug("bind did not complete", zap.Error(msg.Err))
	default:
		// The session reports dial failures as an error event as well.
		m.log.Warn("bind failed", zap.Error(msg.Err))
	}
	m.chat.Refresh()
	return m, nil
}

func (m *Model) handleSessionEvent(ev session.Event) {
	if ev.Kind != session.EventError || ev.Err == nil {
		return
	}
	switch {
	case errors.Is(ev.Err, session.ErrTransportClosed), errors.Is(ev.Err, transport.ErrClosed):
		m.toasts.AddWarning("Disconnected from chat server")
	case errors.Is(ev.Err, session.ErrMalformedFrame):
		m.log.Debug("malformed frame", zap.Error(ev.Err))
	default:
		m.toasts.AddError(ev.Err.Error())
	}
}

// signOut forgets the stored credential and returns to the login form.
func (m *Model) signOut() {
	if err := m.creds.Clear(); err != nil {
		m.log.Warn("failed to clear credentials", zap.Error(err))
	}
	m.signOutLocal()
}

// signOutLocal drops the identity and tears down the session without
// touching the credential file.
func (m *Model) signOutLocal() {
	if err := m.resolver.Invalidate(context.Background()); err != nil {
		m.log.Warn("failed to invalidate identity", zap.Error(err))
	}
	m.sess.Clear()
	m.peers.Reset()
	m.chat.PeersChanged()

	m.credential = ""
	m.refresh = ""
	m.refreshTried = false
	m.identity = nil
	m.profile.SetIdentity(nil, time.Time{})
	m.showProfile = false
	m.showLogin()
}

func (m *Model) showLogin() {
	m.login.Reset()
	if m.username != "" {
		m.login.Prefill(m.username)
	}
	m.screen = ScreenLogin
}

func describeResolveError(err error) string {
	switch {
	case errors.Is(err, api.ErrMissingCredential):
		return "Please sign in"
	case api.IsAuthError(err):
		return "Session expired, please sign in again"
	case api.IsNetworkError(err):
		return "Unable to reach the server"
	default:
		return "Could not load your profile"
	}
}

func describeDirectoryError(err error) string {
	if api.IsNetworkError(err) {
		return "Unable to reach the server, peer list unavailable"
	}
	return "Could not load the peer list"
}
