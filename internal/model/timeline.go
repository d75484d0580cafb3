// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// Entry is a message as held in the timeline.
type Entry struct {
	// Seq is the locally-assigned, monotonically increasing render key.
	// It is never sent over the wire and is not a global identifier.
	Seq uint64

	// ServerID is the relay-assigned id once known.
	ServerID int64

	// Local marks messages appended optimistically by this client.
	Local bool

	// Acked is set once the relay echoed a local message back, with or
	// without a server id.
	Acked bool

	Message ChatMessage
}

// Key returns the entry's render key. Wire ids are assigned by senders and
// may repeat, so the key is built from Seq; the acknowledgement state is
// part of it so a bubble is redrawn once the relay confirms it.
func (e Entry) Key() string {
	if e.Local && e.Acknowledged() {
		return fmt.Sprintf("%d/a", e.Seq)
	}
	return fmt.Sprintf("%d", e.Seq)
}

// Acknowledged reports whether a local message has been seen on the relay.
func (e Entry) Acknowledged() bool {
	return !e.Local || e.Acked || e.ServerID != 0
}

// =============================================================================
// TIMELINE
// =============================================================================

// Timeline is an ordered, append-only message log. It is not safe for
// concurrent use; the session guards it.
type Timeline struct {
	entries []Entry
	nextSeq uint64
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{nextSeq: 1}
}

// Append adds m at the end of the timeline and returns its sequence number.
func (t *Timeline) Append(m ChatMessage, local bool) uint64 {
	seq := t.nextSeq
	t.nextSeq++
	t.entries = append(t.entries, Entry{
		Seq:      seq,
		ServerID: m.ID,
		Local:    local,
		Message:  m,
	})
	return seq
}

// Acknowledge marks the entry with the given sequence number as seen on the
// relay and records serverID when it is non-zero. Nothing is removed or
// reordered. Returns false if seq is unknown.
func (t *Timeline) Acknowledge(seq uint64, serverID int64) bool {
	// Acks almost always target recent entries.
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Seq == seq {
			t.entries[i].Acked = true
			if serverID != 0 {
				t.entries[i].ServerID = serverID
				t.entries[i].Message.ID = serverID
			}
			return true
		}
	}
	return false
}

// Len returns the number of entries, including control messages.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the timeline's entries.
func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// =============================================================================
// FILTER POLICY
// =============================================================================

// FilterPolicy selects which messages the conversation view shows.
type FilterPolicy string

const (
	// PolicyMerged shows every message regardless of the selected peer.
	PolicyMerged FilterPolicy = "merged"
	// PolicyPeer shows only messages between the identity and the selected peer.
	PolicyPeer FilterPolicy = "peer"
)

// ParseFilterPolicy converts a config value to a policy, defaulting to merged.
func ParseFilterPolicy(s string) FilterPolicy {
	if strings.EqualFold(s, string(PolicyPeer)) {
		return PolicyPeer
	}
	return PolicyMerged
}

// Toggle returns the other policy.
func (p FilterPolicy) Toggle() FilterPolicy {
	if p == PolicyPeer {
		return PolicyMerged
	}
	return PolicyPeer
}

// Visible returns the entries the conversation view renders. Control
// sentinels are always dropped. Under PolicyPeer only messages between id and
// peer are kept; with no peer selected that leaves nothing.
func Visible(entries []Entry, policy FilterPolicy, id *Identity, peer *Peer) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if IsControl(e.Message) {
			continue
		}
		if policy == PolicyPeer {
			if id == nil || peer == nil || !e.Message.Between(id.Username, peer.Username) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
