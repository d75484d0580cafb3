// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat client.
//
// This package defines the domain types exchanged with the auth service and
// the chat relay, and the append-only timeline the messaging session keeps.
//
// # Key Types
//
//   - Identity: The resolved profile of the authenticated user
//   - Peer: Another user addressable as a message recipient
//   - ChatMessage: A single message as carried on the relay
//   - Timeline: Ordered, append-only message log with local render keys
//   - FilterPolicy: Whether the visible timeline is merged or per-peer
//
// # Usage
//
// Append and render:
//
//	tl := model.NewTimeline()
//	tl.Append(msg)
//	for _, e := range model.Visible(tl.Entries(), model.PolicyMerged, id, peer) {
//	    if model.Orient(e.Message, id) == model.Outgoing {
//	        // right-align
//	    }
//	}
package model
