package linkmeta

import (
	"sync"
	"time"
)

// TitleCache maps a URL to the title resolved for it and when it was fetched.
// Entries older than the TTL are treated as absent.
type TitleCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	title     string
	fetchedAt time.Time
}

// NewTitleCache creates a new cache.
func NewTitleCache(maxSize int, ttl time.Duration) *TitleCache {
	return &TitleCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached title for url if it is still fresh.
func (c *TitleCache) Get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[url]
	if !exists || !c.fresh(entry) {
		return "", false
	}

	return entry.title, true
}

// Set stores a title for url, stamped with the current time.
func (c *TitleCache) Set(url, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[url]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[url] = &cacheEntry{
		title:     title,
		fetchedAt: c.now(),
	}
}

// SweepExpired removes stale entries and returns how many were removed.
func (c *TitleCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, v := range c.entries {
		if !c.fresh(v) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Size returns the current number of entries in cache, stale ones included.
func (c *TitleCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *TitleCache) fresh(entry *cacheEntry) bool {
	return c.now().Sub(entry.fetchedAt) < c.ttl
}

// evictLocked drops stale entries first, then the oldest one if the cache is still full.
func (c *TitleCache) evictLocked() {
	var oldestKey string
	var oldest time.Time
	for k, v := range c.entries {
		if !c.fresh(v) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || v.fetchedAt.Before(oldest) {
			oldestKey, oldest = k, v.fetchedAt
		}
	}
	if len(c.entries) >= c.maxSize && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
