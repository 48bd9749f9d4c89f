// Package cache holds short-lived copies of read-heavy API responses. Entries
// are flushed whenever a cycle completes, so the TTL only bounds staleness
// between cycles.
package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Keys for cached responses.
const (
	KeyStats = "stats"
	KeyFeeds = "feeds"
)

// Cache wraps go-cache with hit accounting.
type Cache struct {
	store  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache. A ttl <= 0 disables caching: every lookup misses.
func New(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{}
	}
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) {
	if c.store == nil {
		c.misses.Add(1)
		return nil, false
	}
	v, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	if c.store == nil {
		return
	}
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// Remember returns the cached value for key, computing and storing it with
// load on a miss. Errors from load are returned and nothing is stored.
func (c *Cache) Remember(key string, load func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.Set(key, v)
	return v, nil
}

// Flush removes every entry.
func (c *Cache) Flush() {
	if c.store == nil {
		return
	}
	c.store.Flush()
}

// Stats reports cache usage.
type Stats struct {
	Items  int   `json:"items"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns current usage counters.
func (c *Cache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if c.store != nil {
		s.Items = c.store.ItemCount()
	}
	return s
}
