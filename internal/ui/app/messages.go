// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/storage"
)

// =============================================================================
// MESSAGES
// =============================================================================

// credentialsLoadedMsg carries the stored credential. reload is set when the
// load was triggered by a change to the credential file.
type credentialsLoadedMsg struct {
	creds  *storage.Credentials
	err    error
	reload bool
}

// identityResolvedMsg is the result of resolving credential.
type identityResolvedMsg struct {
	credential string
	identity   *model.Identity
	err        error
}

// tokensRefreshedMsg is the result of exchanging the refresh token that
// belongs to credential.
type tokensRefreshedMsg struct {
	credential string
	tokens     *api.TokenPair
	err        error
}

// peersLoadedMsg is a directory fetch issued for the identity with key owner.
type peersLoadedMsg struct {
	owner string
	peers []model.Peer
	err   error
}

// credentialsChangedMsg reports that the credential file was rewritten.
type credentialsChangedMsg struct{}

// watchStoppedMsg reports that the credential watcher was closed.
type watchStoppedMsg struct{}

// IdentityExpiredMsg tells the app that the cached identity was evicted.
// The current credential is resolved again; the session stays bound unless
// the server now reports a different user.
type IdentityExpiredMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

func loadCredentialsCmd(store CredentialStore, reload bool) tea.Cmd {
	return func() tea.Msg {
		creds, err := store.Load()
		return credentialsLoadedMsg{creds: creds, err: err, reload: reload}
	}
}

func resolveCmd(r IdentityResolver, credential string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		id, err := r.Resolve(ctx, credential)
		return identityResolvedMsg{credential: credential, identity: id, err: err}
	}
}

func refreshCmd(auth Auth, credential, refresh string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		tokens, err := auth.Refresh(ctx, refresh)
		return tokensRefreshedMsg{credential: credential, tokens: tokens, err: err}
	}
}

// listPeersCmd fetches the directory for id. The result is tagged with the
// identity it was issued for.
func listPeersCmd(d PeerLister, id *model.Identity, timeout time.Duration) tea.Cmd {
	owner, self := id.Key(), id.Username
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		peers, err := d.ListPeers(ctx, self)
		return peersLoadedMsg{owner: owner, peers: peers, err: err}
	}
}

// watchCmd waits for the next credential file change.
func watchCmd(w ChangeNotifier) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return watchStoppedMsg{}
		}
		return credentialsChangedMsg{}
	}
}
