// ABOUTME: In-memory TTL store backing sessions and address lookups
// ABOUTME: Thread-safe via sync.Map with a background sweep goroutine

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache maps string keys to values with per-entry expiry. The default
// TTL applies to Set; SetWithTTL overrides it per entry.
type Cache struct {
	store      sync.Map
	defaultTTL time.Duration
}

func New(defaultTTL time.Duration) *Cache {
	c := &Cache{defaultTTL: defaultTTL}
	go c.sweep()
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		return nil, false
	}

	e := val.(entry)
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("cache entry expired", "key", key)
		return nil, false
	}

	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL, replacing any existing
// entry and restarting its expiry clock.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Store(key, entry{value: value, expiresAt: time.Now().Add(ttl)})
}

func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// sweep removes expired entries so abandoned sessions do not
// accumulate between reads.
func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.store.Range(func(key, val any) bool {
			if now.After(val.(entry).expiresAt) {
				c.store.Delete(key)
			}
			return true
		})
	}
}
