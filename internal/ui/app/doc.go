// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the root Bubble Tea model of the relaychat TUI.
//
// The model routes between three screens:
//
//	Loading -> Login -> Chat
//
// On start it loads the stored credential and resolves it to an identity.
// A resolved identity binds the messaging session and triggers a one-shot
// directory fetch. Every asynchronous result is tagged with what it was
// issued for (the access token for identity lookups, the identity key for
// directory fetches) and discarded when that no longer matches.
//
// When the credential file changes on disk the identity is re-resolved, and
// a different user rebinds the session. Logging out (ctrl+l) clears the
// stored credential, invalidates the cached identity and tears down the
// session. Quitting tears down the session before the program exits.
//
// # Key Types
//
//   - Model: Root model
//   - Options: External collaborators
//   - Screen: Active screen
package app
