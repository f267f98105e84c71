// SPDX-License-Identifier: MIT

// Package cache stores Gotenberg responses that are safe to reuse, such as
// metadata read results keyed by the hash of the submitted files.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache provides thread-safe byte caching with expiration support.
type Cache interface {
	// Get retrieves a value from the cache. The bool is false if missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores a value in the cache with the specified TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string)
	// Clear removes all values owned by this cache.
	Clear(ctx context.Context)
	// Stats returns cache statistics.
	Stats() Stats
	// Close releases background resources.
	Close() error
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

// entry represents a cached value with expiration time.
type entry struct {
	value      []byte
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// memoryCache is an in-memory implementation of Cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	stats   Stats
	janitor *janitor
}

// NewMemoryCache creates a new in-memory cache.
// A positive cleanupInterval starts a janitor goroutine that is stopped by Close.
func NewMemoryCache(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}

	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.isExpired(time.Now()) {
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		value:      stored,
		expiration: time.Now().Add(ttl),
	}
	c.stats.Sets++
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Clear(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *memoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// deleteExpired removes all expired entries and returns how many were dropped.
func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}

	c.stats.Evictions += int64(count)
	return count
}

func (c *memoryCache) Close() error {
	if c.janitor != nil {
		c.janitor.shutdown()
	}
	return nil
}

// janitor performs periodic cleanup of expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (j *janitor) run(c *memoryCache) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

func (j *janitor) shutdown() {
	j.once.Do(func() { close(j.stop) })
	<-j.done
}

type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noOpCache) Set(context.Context, string, []byte, time.Duration) {}
func (noOpCache) Delete(context.Context, string) {}
func (noOpCache) Clear(context.Context) {}
func (noOpCache) Stats() Stats { return Stats{} }
func (noOpCache) Close() error { return nil }
