// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport provides the real-time connection to the chat relay.
//
// A connection is scoped to one user: its address is built from a URL
// template with the user's numeric id substituted (see Target). Frames are
// JSON-encoded chat messages; this package moves bytes and leaves decoding
// to the session.
//
// # Key Types
//
//   - Conn: One open relay connection (read, write, close)
//   - Dialer: Opens a Conn for a target address
//   - WebSocketDialer: Dialer over gorilla/websocket with ping keepalive
//
// # Usage
//
//	d := transport.NewWebSocketDialer(transport.Options{PingInterval: 30 * time.Second})
//	conn, err := d.Dial(ctx, transport.Target(tmpl, id.UserID))
//	defer conn.Close()
package transport
