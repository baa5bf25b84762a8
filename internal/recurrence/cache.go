package recurrence

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/taskdeck/internal/models"
)

// cacheEntry holds one memoized expansion result
type cacheEntry struct {
	dates     []time.Time
	expiresAt time.Time
}

// Cache memoizes expansion results. Expansion is pure, so a cached result
// stays correct for the lifetime of the process; the TTL only bounds memory
// held for windows nobody asks about anymore.
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]cacheEntry
	ttl         time.Duration
	maxEntries  int
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// CacheConfig holds configuration for the expansion cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to sweep expired entries
}

// DefaultCacheConfig provides sensible defaults for a local single-process app
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewCache creates an expansion cache and starts its cleanup goroutine.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheConfig.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}
	c := &Cache{
		entries:     make(map[string]cacheEntry),
		ttl:         cfg.TTL,
		maxEntries:  cfg.MaxEntries,
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop(cfg.CleanupInterval)
	return c
}

// key hashes the full expansion input so distinct rules, anchors or windows
// never collide.
func key(rule models.RecurrenceRule, anchor, windowStart, windowEnd time.Time) string {
	h := sha256.New()
	// The rule is a plain value struct; its JSON form is a stable identity.
	if b, err := json.Marshal(rule); err == nil {
		h.Write(b)
	}
	h.Write([]byte(anchor.Format(time.RFC3339)))
	h.Write([]byte(windowStart.Format(time.RFC3339)))
	h.Write([]byte(windowEnd.Format(time.RFC3339)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns a cached expansion if present and not expired.
func (c *Cache) Get(rule models.RecurrenceRule, anchor, windowStart, windowEnd time.Time) ([]time.Time, bool) {
	k := key(rule, anchor, windowStart, windowEnd)

	c.mu.RLock()
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	// Callers own the returned slice; handing out the stored one would let
	// a mutation corrupt every later hit.
	dates := make([]time.Time, len(entry.dates))
	copy(dates, entry.dates)
	return dates, true
}

// Put stores an expansion result. When the cache is full it drops expired
// entries first and, if still full, an arbitrary entry; precise eviction
// order is not worth tracking for a bounded local cache.
func (c *Cache) Put(rule models.RecurrenceRule, anchor, windowStart, windowEnd time.Time, dates []time.Time) {
	k := key(rule, anchor, windowStart, windowEnd)
	now := time.Now()

	// The caller keeps its slice; store a private copy.
	stored := make([]time.Time, len(dates))
	copy(stored, dates)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		for ek, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, ek)
			}
		}
		if len(c.entries) >= c.maxEntries {
			for ek := range c.entries {
				delete(c.entries, ek)
				break
			}
		}
	}

	c.entries[k] = cacheEntry{dates: stored, expiresAt: now.Add(c.ttl)}
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}
