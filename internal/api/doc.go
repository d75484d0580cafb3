// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the chat backend's auth service.
//
// The backend is an external collaborator; this package only speaks its
// interface: token issue and refresh, profile lookup and the user directory.
//
// # Key Types
//
//   - Client: Thread-safe HTTP client for the auth endpoints
//   - ClientConfig: Base URL, endpoint paths and timeout
//   - TokenPair: The {access, refresh} pair issued at login
//   - ClientError: Typed error with an ErrorType for handling
//
// # Error Handling
//
// Errors are *ClientError values. Compare with errors.Is against the
// sentinels, which match by type:
//
//	if errors.Is(err, api.ErrUnauthorized) {
//	    // credential rejected, show the login screen
//	}
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: cfg.Server.BaseURL})
//	tokens, err := client.Login(ctx, "me", "secret")
//	id, err := client.Profile(ctx, tokens.Access)
//	peers, err := client.ListUsers(ctx)
package api
