// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory fetches the list of chat peers and tracks which one is
// selected.
//
// The listing is a single one-shot fetch per session: no pagination, no
// caching and no automatic retry. A failed fetch leaves the set empty and
// the error is kept for display.
package directory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/relaychat-tui/internal/model"
)

// Lister fetches the user directory.
type Lister interface {
	ListUsers(ctx context.Context) ([]model.Peer, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client fetches peers through a Lister.
type Client struct {
	lister Lister
	log    *zap.Logger
}

// NewClient returns a directory client.
func NewClient(l Lister, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{lister: l, log: log.Named("directory")}
}

// ListPeers fetches the directory once. The current user is removed from the
// result when self is non-empty, so when self is listed first the peer that
// PeerSet.Replace auto-selects is the server's second entry.
func (c *Client) ListPeers(ctx context.Context, self string) ([]model.Peer, error) {
	peers, err := c.lister.ListUsers(ctx)
	if err != nil {
		c.log.Warn("peer listing failed", zap.Error(err))
		return nil, fmt.Errorf("list peers: %w", err)
	}
	out := make([]model.Peer, 0, len(peers))
	for _, p := range peers {
		if self != "" && p.Username == self {
			continue
		}
		out = append(out, p)
	}
	c.log.Debug("peers listed", zap.Int("count", len(out)))
	return out, nil
}

// =============================================================================
// PEER SET
// =============================================================================

// PeerSet is the last fetched peer list and the current selection. The
// selection is always nil or a member of the list.
type PeerSet struct {
	mu       sync.RWMutex
	peers    []model.Peer
	selected int
	err      error
}

// NewPeerSet returns an empty set with no selection.
func NewPeerSet() *PeerSet {
	return &PeerSet{selected: -1}
}

// Replace installs a freshly fetched list. The previous selection is kept if
// a peer with the same username is still present, otherwise the first entry
// is selected. An empty list clears the selection.
func (s *PeerSet) Replace(peers []model.Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := ""
	if s.selected >= 0 {
		prev = s.peers[s.selected].Username
	}

	s.peers = append([]model.Peer(nil), peers...)
	s.err = nil
	s.selected = -1
	if len(s.peers) == 0 {
		return
	}
	s.selected = 0
	for i, p := range s.peers {
		if p.Username == prev {
			s.selected = i
			break
		}
	}
}

// Fail records a fetch failure and empties the set.
func (s *PeerSet) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers = nil
	s.selected = -1
	s.err = err
}

// Reset empties the set without recording an error.
func (s *PeerSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers = nil
	s.selected = -1
	s.err = nil
}

// Move shifts the selection by delta, clamped to the list bounds.
func (s *PeerSet) Move(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.peers) == 0 {
		return
	}
	i := s.selected + delta
	if i < 0 {
		i = 0
	}
	if i >= len(s.peers) {
		i = len(s.peers) - 1
	}
	s.selected = i
}

// Selected returns a copy of the selected peer, or nil.
func (s *PeerSet) Selected() *model.Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected < 0 {
		return nil
	}
	p := s.peers[s.selected]
	return &p
}

// SelectedIndex returns the selected index, or -1.
func (s *PeerSet) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Peers returns a copy of the list.
func (s *PeerSet) Peers() []model.Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Peer(nil), s.peers...)
}

// Err returns the last fetch error, if any.
func (s *PeerSet) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
