package dictionary

import (
	"sync"
	"time"
)

type entry struct {
	valid   bool
	expires time.Time
}

// cache is a bounded, time-limited map of lookup results. When full, the
// entry that was inserted first is evicted, regardless of how recently it
// was read.
type cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	limit   int
	now     func() time.Time
	entries map[string]entry
	order   []string
}

func newCache(ttl time.Duration, limit int, now func() time.Time) *cache {
	return &cache{
		ttl:     ttl,
		limit:   limit,
		now:     now,
		entries: make(map[string]entry),
	}
}

func (c *cache) get(word string) (valid, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[word]
	if !found || !c.now().Before(e.expires) {
		return false, false
	}

	return e.valid, true
}

func (c *cache) put(word string, valid bool) {
	c.putFor(word, valid, c.ttl)
}

// putFor stores word with its own lifetime instead of the cache default.
func (c *cache) putFor(word string, valid bool, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{valid: valid, expires: c.now().Add(ttl)}

	// Refreshing a key keeps its place in the eviction queue.
	if _, found := c.entries[word]; found {
		c.entries[word] = e
		return
	}

	for len(c.entries) >= c.limit && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[word] = e
	c.order = append(c.order, word)
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
