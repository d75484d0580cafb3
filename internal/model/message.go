// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// ControlSentinel is the reserved body the relay sends to signal the channel
// is ready. It is never a user-authored message.
const ControlSentinel = "Connection established"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ChatMessage is the JSON payload carried on the relay in both directions.
type ChatMessage struct {
	// ID is the server-assigned id when the relay provides one. Outgoing
	// messages are sent with 0.
	ID          int64      `json:"id"`
	Sender      string     `json:"sender"`
	Receiver    string     `json:"receiver"`
	MessageBody string     `json:"messageBody"`
	SentAt      time.Time  `json:"sentAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`

	// CorrelationID ties a locally-sent message to the relay's copy of it.
	CorrelationID string `json:"correlationId,omitempty"`
}

// IsControl reports whether m is the relay's readiness signal.
func IsControl(m ChatMessage) bool {
	return m.MessageBody == ControlSentinel
}

// IsDeleted reports whether the message has been marked deleted.
func (m ChatMessage) IsDeleted() bool {
	return m.DeletedAt != nil
}

// Between reports whether the message was exchanged between a and b in
// either direction.
func (m ChatMessage) Between(a, b string) bool {
	return (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a)
}

// =============================================================================
// ORIENTATION
// =============================================================================

// Orientation is the side a message renders on.
type Orientation int

const (
	// Incoming messages were authored by someone else (left-aligned).
	Incoming Orientation = iota
	// Outgoing messages were authored by the current identity (right-aligned).
	Outgoing
)

// String returns the orientation name.
func (o Orientation) String() string {
	if o == Outgoing {
		return "outgoing"
	}
	return "incoming"
}

// Orient classifies m relative to the current identity. It depends only on
// the message sender and the identity's username; the selected peer plays no
// part. Callers must not pass a nil identity.
func Orient(m ChatMessage, id *Identity) Orientation {
	if m.Sender == id.Username {
		return Outgoing
	}
	return Incoming
}
