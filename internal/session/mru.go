package session

import "sync"

// mruEntry is one cached (userID, passwordHash) pair.
type mruEntry struct {
	userID       string
	passwordHash string
}

// mruCache keeps the most recently matched users' password hashes so
// the common case (same handful of staff logging in repeatedly) skips
// a full bcrypt sweep over every active user. Bounded to ≤5 entries,
// evicted LRU. matchUser accepts a cached entry only while its hash
// equals the user's current stored hash, so a changed PIN is never
// matched from cache.
type mruCache struct {
	mu      sync.Mutex
	entries []mruEntry
	maxSize int
}

func newMRUCache(maxSize int) *mruCache {
	return &mruCache{maxSize: maxSize}
}

// Entries returns a snapshot of cached entries, most recently used
// first.
func (c *mruCache) Entries() []mruEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mruEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Promote moves userID to the front of the cache, inserting it with
// passwordHash if absent and evicting the least-recently-used entry
// once the cache is full.
func (c *mruCache) Promote(userID, passwordHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.userID == userID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}

	c.entries = append([]mruEntry{{userID: userID, passwordHash: passwordHash}}, c.entries...)
	if len(c.entries) > c.maxSize {
		c.entries = c.entries[:c.maxSize]
	}
}

// Invalidate clears the cache wholesale. It is reached through
// Service.InvalidateMRU; the pull engine's user upserts do not call it.
func (c *mruCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
