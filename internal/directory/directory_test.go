// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/relaychat-tui/internal/model"
)

type fakeLister struct {
	peers []model.Peer
	err   error
	calls int
}

func (f *fakeLister) ListUsers(ctx context.Context) ([]model.Peer, error) {
	f.calls++
	return f.peers, f.err
}

var bobAmy = []model.Peer{{ID: 1, Username: "bob"}, {ID: 2, Username: "amy"}}

func TestListPeers(t *testing.T) {
	l := &fakeLister{peers: append(bobAmy, model.Peer{ID: 3, Username: "me"})}
	c := NewClient(l, nil)

	peers, err := c.ListPeers(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, bobAmy, peers)
	assert.Equal(t, 1, l.calls)
}

func TestListPeers_SelfListedFirst(t *testing.T) {
	l := &fakeLister{peers: []model.Peer{{ID: 3, Username: "me"}, {ID: 1, Username: "bob"}}}
	peers, err := NewClient(l, nil).ListPeers(context.Background(), "me")
	require.NoError(t, err)

	s := NewPeerSet()
	s.Replace(peers)
	require.NotNil(t, s.Selected())
	assert.Equal(t, "bob", s.Selected().Username)
}

func TestListPeers_Failure(t *testing.T) {
	boom := errors.New("connection refused")
	c := NewClient(&fakeLister{err: boom}, nil)

	peers, err := c.ListPeers(context.Background(), "")
	assert.Nil(t, peers)
	assert.ErrorIs(t, err, boom)
}

// Login resolves, the directory returns bob and amy, bob is auto-selected.
func TestPeerSet_AutoSelectsFirst(t *testing.T) {
	s := NewPeerSet()
	assert.Nil(t, s.Selected())

	s.Replace(bobAmy)
	require.NotNil(t, s.Selected())
	assert.Equal(t, "bob", s.Selected().Username)
	assert.Equal(t, 0, s.SelectedIndex())
}

func TestPeerSet_ReplaceKeepsSelection(t *testing.T) {
	s := NewPeerSet()
	s.Replace(bobAmy)
	s.Move(1)

	s.Replace([]model.Peer{{ID: 4, Username: "zed"}, {ID: 2, Username: "amy"}})
	assert.Equal(t, "amy", s.Selected().Username)

	s.Replace([]model.Peer{{ID: 4, Username: "zed"}})
	assert.Equal(t, "zed", s.Selected().Username)

	s.Replace(nil)
	assert.Nil(t, s.Selected())
	assert.Equal(t, -1, s.SelectedIndex())
}

func TestPeerSet_SelectionAlwaysMember(t *testing.T) {
	s := NewPeerSet()
	s.Replace(bobAmy)

	s.Move(-1)
	assert.Equal(t, "bob", s.Selected().Username)
	s.Move(10)
	assert.Equal(t, "amy", s.Selected().Username)
	assert.Equal(t, 1, s.SelectedIndex())
	s.Move(-10)
	assert.Equal(t, 0, s.SelectedIndex())
}

func TestPeerSet_Fail(t *testing.T) {
	s := NewPeerSet()
	s.Replace(bobAmy)

	boom := errors.New("unreachable")
	s.Fail(boom)
	assert.Empty(t, s.Peers())
	assert.Nil(t, s.Selected())
	assert.Equal(t, boom, s.Err())

	s.Replace(bobAmy)
	assert.NoError(t, s.Err())

	s.Reset()
	assert.Empty(t, s.Peers())
	assert.NoError(t, s.Err())
}

func TestPeerSet_PeersIsCopy(t *testing.T) {
	s := NewPeerSet()
	s.Replace(bobAmy)
	p := s.Peers()
	p[0].Username = "mutated"
	assert.Equal(t, "bob", s.Peers()[0].Username)
}
