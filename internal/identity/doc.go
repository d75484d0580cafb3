// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity resolves a stored credential into the current user's
// identity, with a short-lived local cache.
//
// A resolved identity is held in memory with an eviction timer and also
// written to the record store together with its expiry. Every read re-checks
// the expiry, so a record left behind by a previous run is never served past
// its deadline. The cache lifetime is the configured TTL (at most one hour),
// shortened to the access token's own expiry when that comes first.
//
// # Usage
//
//	cache := identity.New(client, identity.Config{Store: store, TTL: time.Hour})
//	defer cache.Close()
//	id, err := cache.Resolve(ctx, creds.Access)
package identity
