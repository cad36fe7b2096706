package application

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// warningCache stores the pairwise overlap warnings computed for a user's
// listing until that user's schedule changes or the entry expires.
//
// Every InvalidateUser bumps the user's generation. Callers read the
// generation before loading events and pass it to Get and Store, so a
// listing computed from events older than the last write is never served.
type warningCache struct {
	mu          sync.RWMutex
	now         func() time.Time
	ttl         time.Duration
	maxEntries  int
	entries     map[string]warningCacheEntry
	generations map[string]uint64
}

type warningCacheEntry struct {
	userID     string
	generation uint64
	warnings   []ConflictWarning
	expiresAt  time.Time
}

func newWarningCache(ttl time.Duration, maxEntries int, now func() time.Time) *warningCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 512
	}
	if now == nil {
		now = time.Now
	}
	return &warningCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:     make(map[string]warningCacheEntry),
		generations: make(map[string]uint64),
	}
}

// Generation returns the number of invalidations seen for userID.
func (c *warningCache) Generation(userID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[userID]
}

func (c *warningCache) Get(key string, generation uint64) ([]ConflictWarning, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	current := c.generations[entry.userID]
	c.mu.RUnlock()
	if !ok || entry.generation != generation || current != generation {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneWarnings(entry.warnings), true
}

// Store keeps warnings computed at generation. It is a no-op when the user's
// schedule has been invalidated since.
func (c *warningCache) Store(userID, key string, generation uint64, warnings []ConflictWarning) {
	if c == nil {
		return
	}
	entry := warningCacheEntry{userID: userID, generation: generation, warnings: cloneWarnings(warnings), expiresAt: c.now().Add(c.ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[userID] != generation {
		return
	}
	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = entry
}

// InvalidateUser drops every entry computed from userID's schedule.
func (c *warningCache) InvalidateUser(userID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	for key, entry := range c.entries {
		if entry.userID == userID {
			delete(c.entries, key)
		}
	}
}

func (c *warningCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *warningCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func cloneWarnings(warnings []ConflictWarning) []ConflictWarning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]ConflictWarning, len(warnings))
	copy(out, warnings)
	return out
}

func buildWarningCacheKey(userID string, day *time.Weekday) string {
	var builder strings.Builder
	builder.WriteString(userID)
	builder.WriteString("|")
	if day != nil {
		builder.WriteString(strconv.Itoa(int(*day)))
	} else {
		builder.WriteString("*")
	}
	return builder.String()
}
