// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("record not found")
	// ErrExpired also matches ErrNotFound.
	ErrExpired = fmt.Errorf("%w: expired", ErrNotFound)
	ErrClosed  = errors.New("store closed")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Record is a stored value with its expiry.
type Record struct {
	Value     []byte
	ExpiresAt time.Time
}

// Store holds records that carry their own expiry. Get re-checks the expiry
// on every read and removes the record once it has passed, so a record never
// outlives its deadline even if no timer fired.
type Store interface {
	Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	Get(ctx context.Context, key string) (Record, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// =============================================================================
// SQLITE STORE
// =============================================================================

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now Clock
}

// OpenSQLite opens (creating if needed) the record database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	return OpenSQLiteWithClock(path, time.Now)
}

// OpenSQLiteWithClock is OpenSQLite with an injectable clock.
func OpenSQLiteWithClock(path string, now Clock) (*SQLiteStore, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// The file may hold a cached identity.
	_ = os.Chmod(path, 0600)

	return &SQLiteStore{db: db, now: now}, nil
}

// Put inserts or replaces a record.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

// Get returns the record for key. Expired records are deleted and reported
// as ErrExpired.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Record, error) {
	var (
		value []byte
		expMs int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM records WHERE key = ?`, key).Scan(&value, &expMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read %q: %w", key, err)
	}

	exp := time.UnixMilli(expMs)
	if !s.now().Before(exp) {
		_ = s.Delete(ctx, key)
		return Record{}, ErrExpired
	}
	return Record{Value: value, ExpiresAt: exp}, nil
}

// Delete removes a record. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Purge deletes every expired record and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge records: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     Clock
	closed  bool
}

// NewMemoryStore returns an empty in-memory store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock returns an empty in-memory store using now.
func NewMemoryStoreWithClock(now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{records: make(map[string]Record), now: now}
}

// Put stores a copy of value.
func (m *MemoryStore) Put(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records[key] = Record{Value: append([]byte(nil), value...), ExpiresAt: expiresAt}
	return nil
}

// Get returns the record for key, enforcing its expiry.
func (m *MemoryStore) Get(_ context.Context, key string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Record{}, ErrClosed
	}
	rec, ok := m.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !m.now().Before(rec.ExpiresAt) {
		delete(m.records, key)
		return Record{}, ErrExpired
	}
	return Record{Value: append([]byte(nil), rec.Value...), ExpiresAt: rec.ExpiresAt}, nil
}

// Delete removes key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.records, key)
	return nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
