package geocode

import (
	"sync"
	"time"
)

// Cache is a capacity-bounded TTL cache for resolved addresses. It is the only
// mutable state shared across requests and is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	address   string
	expiresAt time.Time
}

// NewCache creates a cache holding at most maxEntries addresses for ttl each.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached address for key if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return "", false
	}
	return e.address, true
}

// Put stores an address, evicting expired entries (and under capacity
// pressure, the entry closest to expiry) as needed.
func (c *Cache) Put(key, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = cacheEntry{address: address, expiresAt: now.Add(c.ttl)}
}

// evictLocked removes expired entries; if nothing has expired it drops the
// entry that expires soonest so a fresh one can be admitted.
func (c *Cache) evictLocked(now time.Time) {
	var oldestKey string
	var oldestExpiry time.Time
	removed := 0

	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = e.expiresAt
		}
	}

	if removed == 0 && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Stats summarizes the cache for the operational status endpoint.
type Stats struct {
	Entries int `json:"entries"`
	Fresh   int `json:"fresh"`
	Expired int `json:"expired"`
}

// Stats returns a snapshot of entry counts.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	s := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			s.Fresh++
		} else {
			s.Expired++
		}
	}
	return s
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
