// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// UserIDPlaceholder is replaced with the user's numeric id in a URL template.
const UserIDPlaceholder = "{user_id}"

// ErrClosed is returned by reads and writes on a connection that has ended,
// whether closed locally, by the relay or by the network.
var ErrClosed = errors.New("transport closed")

// Conn is one open relay connection. ReadMessage must be called from a
// single goroutine; WriteMessage and Close are safe to call concurrently.
type Conn interface {
	// ReadMessage blocks until the next data frame arrives. It returns an
	// error wrapping ErrClosed once the connection has ended.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one frame.
	WriteMessage(data []byte) error

	// Close ends the connection. It is safe to call more than once.
	Close() error
}

// Dialer opens relay connections.
type Dialer interface {
	// Dial returns once the connection is ready for use. Cancelling ctx
	// aborts an in-flight handshake.
	Dial(ctx context.Context, target string) (Conn, error)
}

// Target substitutes userID into template.
func Target(template string, userID int64) string {
	return strings.ReplaceAll(template, UserIDPlaceholder, strconv.FormatInt(userID, 10))
}
