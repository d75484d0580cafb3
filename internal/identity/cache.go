// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jeranaias/relaychat-tui/internal/api"
	"github.com/jeranaias/relaychat-tui/internal/model"
	"github.com/jeranaias/relaychat-tui/internal/storage"
)

// RecordKey is the fixed key of the cached identity in the record store.
const RecordKey = "identity"

// MaxTTL is the upper bound on how long an identity is cached.
const MaxTTL = time.Hour

// ErrClosed is returned by Resolve after Close.
var ErrClosed = errors.New("identity cache closed")

// Resolver looks up the identity a credential belongs to.
type Resolver interface {
	Profile(ctx context.Context, access string) (*model.Identity, error)
}

// Config holds cache options.
type Config struct {
	// TTL is the cache lifetime (default and maximum: one hour).
	TTL time.Duration

	// Store persists the cached record. Nil keeps the cache in memory only.
	Store storage.Store

	// OnEvict is called, outside any lock, when the eviction timer drops the
	// in-memory identity.
	OnEvict func(*model.Identity)

	Logger *zap.Logger

	// Now overrides the clock used for expiry decisions.
	Now func() time.Time
}

// record is the persisted form of a cached identity.
type record struct {
	CredentialHash string         `json:"credential_hash"`
	Identity       model.Identity `json:"identity"`
	ExpiresAt      time.Time      `json:"expires_at"`
}

type entry struct {
	hash      string
	identity  model.Identity
	expiresAt time.Time
	timer     *time.Timer
}

// =============================================================================
// CACHE
// =============================================================================

// Cache resolves credentials to identities. It is safe for concurrent use.
type Cache struct {
	resolver Resolver
	store    storage.Store
	ttl      time.Duration
	onEvict  func(*model.Identity)
	log      *zap.Logger
	now      func() time.Time

	group singleflight.Group

	mu     sync.Mutex
	entry  *entry
	gen    uint64
	closed bool
}

// New creates a cache that resolves through r.
func New(r Resolver, cfg Config) *Cache {
	if cfg.TTL <= 0 || cfg.TTL > MaxTTL {
		cfg.TTL = MaxTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Cache{
		resolver: r,
		store:    cfg.Store,
		ttl:      cfg.TTL,
		onEvict:  cfg.OnEvict,
		log:      cfg.Logger.Named("identity"),
		now:      cfg.Now,
	}
}

func hashCredential(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the identity for credential. A cached identity that has
// not expired is returned without a network call; concurrent resolutions of
// the same credential share one call. An empty credential fails with
// api.ErrMissingCredential before any network activity. Failures are not
// retried.
func (c *Cache) Resolve(ctx context.Context, credential string) (*model.Identity, error) {
	if credential == "" {
		c.log.Warn("resolve without credential")
		return nil, api.ErrMissingCredential
	}
	hash := hashCredential(credential)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if id := c.liveLocked(hash); id != nil {
		c.mu.Unlock()
		return id, nil
	}
	gen := c.gen
	c.mu.Unlock()

	if id := c.loadRecord(ctx, hash, gen); id != nil {
		return id, nil
	}

	v, err, shared := c.group.Do(hash, func() (interface{}, error) {
		return c.fetch(ctx, credential, hash, gen)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("shared in-flight profile lookup")
	}
	id := v.(model.Identity)
	return &id, nil
}

// liveLocked returns a copy of the in-memory identity if it matches hash and
// has not expired. c.mu must be held.
func (c *Cache) liveLocked(hash string) *model.Identity {
	e := c.entry
	if e == nil || e.hash != hash {
		return nil
	}
	if !c.now().Before(e.expiresAt) {
		c.dropLocked()
		return nil
	}
	id := e.identity
	return &id
}

// loadRecord serves a persisted identity for hash if it is still valid.
func (c *Cache) loadRecord(ctx context.Context, hash string, gen uint64) *model.Identity {
	if c.store == nil {
		return nil
	}
	rec, err := c.store.Get(ctx, RecordKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.Warn("failed to read cached identity", zap.Error(err))
		}
		return nil
	}
	var r record
	if err := json.Unmarshal(rec.Value, &r); err != nil {
		c.log.Warn("discarding unreadable cached identity", zap.Error(err))
		_ = c.store.Delete(ctx, RecordKey)
		return nil
	}
	// Both the row expiry and the embedded timestamp must still be in the future.
	if r.CredentialHash != hash || !c.now().Before(r.ExpiresAt) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gen != gen {
		return nil
	}
	c.installLocked(hash, r.Identity, r.ExpiresAt)
	id := r.Identity
	return &id
}

func (c *Cache) fetch(ctx context.Context, credential, hash string, gen uint64) (interface{}, error) {
	id, err := c.resolver.Profile(ctx, credential)
	if err != nil {
		c.log.Warn("identity resolution failed", zap.Error(err))
		return nil, err
	}

	now := c.now()
	expiresAt := now.Add(c.ttl)
	if exp, ok := api.TokenExpiry(credential); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}

	c.mu.Lock()
	stale := c.closed || c.gen != gen
	if !stale && expiresAt.After(now) {
		c.installLocked(hash, *id, expiresAt)
	}
	c.mu.Unlock()

	if !stale && expiresAt.After(now) && c.store != nil {
		data, err := json.Marshal(record{CredentialHash: hash, Identity: *id, ExpiresAt: expiresAt})
		if err == nil {
			err = c.store.Put(ctx, RecordKey, data, expiresAt)
		}
		if err != nil {
			c.log.Warn("failed to persist identity", zap.Error(err))
		}
	}

	c.log.Info("identity resolved",
		zap.String("username", id.Username),
		zap.Int64("user_id", id.UserID),
		zap.Time("expires_at", expiresAt),
	)
	return *id, nil
}

// installLocked replaces the in-memory entry and arms its eviction timer.
func (c *Cache) installLocked(hash string, id model.Identity, expiresAt time.Time) {
	c.dropLocked()
	e := &entry{hash: hash, identity: id, expiresAt: expiresAt}
	e.timer = time.AfterFunc(expiresAt.Sub(c.now()), func() { c.evict(e) })
	c.entry = e
}

func (c *Cache) dropLocked() {
	if c.entry != nil {
		c.entry.timer.Stop()
		c.entry = nil
	}
}

func (c *Cache) evict(e *entry) {
	c.mu.Lock()
	if c.entry != e || c.closed {
		c.mu.Unlock()
		return
	}
	c.entry = nil
	id := e.identity
	cb := c.onEvict
	c.mu.Unlock()

	c.log.Info("cached identity expired", zap.String("username", id.Username))
	if cb != nil {
		cb(&id)
	}
}

// Current returns the cached identity if one is live, or nil.
func (c *Cache) Current() *model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return nil
	}
	return c.liveLocked(c.entry.hash)
}

// ExpiresAt returns when the current identity expires, or the zero time.
func (c *Cache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return time.Time{}
	}
	return c.entry.expiresAt
}

// Invalidate drops the cached identity from memory and the store. Results of
// lookups already in flight are discarded.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.dropLocked()
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, RecordKey)
}

// Close cancels the eviction timer. The store is owned by the caller.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
	c.dropLocked()
}
