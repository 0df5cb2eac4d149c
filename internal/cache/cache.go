// Package cache provides a TTL-bounded memoization layer for table fetches,
// keyed by fetch parameters rather than request identity. A cached Table is
// treated as immutable for its lifetime and wholesale-replaced on refresh.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nocoview/internal/logging"
	"nocoview/internal/table"
)

// DefaultTTL matches the original viewer's five minute cache window.
const DefaultTTL = 300 * time.Second

// Key identifies one fetch configuration.
type Key struct {
	BaseURL  string
	PageSize int
}

func (k Key) id() string {
	return k.BaseURL + "|" + strconv.Itoa(k.PageSize)
}

// FetchFunc produces a fresh Table for a key.
type FetchFunc func(ctx context.Context) (*table.Table, error)

type entry struct {
	table     *table.Table
	fetchedAt time.Time
}

// Cache stores fetched Tables until they go stale.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[Key]entry
	group   singleflight.Group
}

// New creates a cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[Key]entry),
	}
}

// fetchOutcome pairs the table produced inside the singleflight group with
// whether it came from the cache, so every collapsed caller sees the same
// answer.
type fetchOutcome struct {
	table *table.Table
	hit   bool
}

// GetOrFetch returns the cached Table for key while it is fresh, otherwise
// invokes fetch and stores the result. Concurrent callers for the same key are
// collapsed into a single fetch. Failed fetches are never cached, so the next
// call retries. The second return value reports whether the result came from
// the cache; a caller collapsed into someone else's fresh fetch did not hit
// the cache.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) (*table.Table, bool, error) {
	if t, ok := c.lookup(key); ok {
		logging.CacheDebug("hit for %s", key.BaseURL)
		return t, true, nil
	}

	v, err, _ := c.group.Do(key.id(), func() (interface{}, error) {
		// A concurrent caller may have repopulated the entry while we
		// waited on the group.
		if t, ok := c.lookup(key); ok {
			return fetchOutcome{table: t, hit: true}, nil
		}
		t, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{table: t, fetchedAt: c.now()}
		c.mu.Unlock()
		logging.Cache("stored %d records for %s", t.Len(), key.BaseURL)
		return fetchOutcome{table: t}, nil
	})
	if err != nil {
		return table.New(), false, err
	}
	out := v.(fetchOutcome)
	return out.table, out.hit, nil
}

// lookup returns the entry for key if present and fresh.
func (c *Cache) lookup(key Key) (*table.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.table, true
}

// Invalidate drops the entry for key, forcing the next GetOrFetch to refetch.
// Used by the manual refresh action in the TUI.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	logging.CacheDebug("invalidated %s", key.BaseURL)
}

// Len returns the number of live entries (stale entries included until their
// next lookup).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
