// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for relaychat.
//
// Two kinds of state live on disk: short-lived records (the cached identity)
// and the stored credential. Message history is never persisted.
//
// # Key Types
//
//   - Store: Key/value records with an embedded expiry, checked on every read
//   - SQLiteStore: Store backed by a pure Go SQLite database
//   - MemoryStore: Store kept in process memory, for tests
//   - CredentialStore: The token pair saved by `relaychat login`
//   - Watcher: Notifies when another process rewrites the credential file
//
// # Usage
//
//	store, err := storage.OpenSQLite(path)
//	err = store.Put(ctx, "identity", data, time.Now().Add(time.Hour))
//	rec, err := store.Get(ctx, "identity") // ErrExpired once the hour has passed
//
// # Storage Location
//
// Files live in ~/.relaychat/: cache.db and credentials.json.
package storage
