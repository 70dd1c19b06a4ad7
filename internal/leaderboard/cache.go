package leaderboard

import (
	"sync"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// BoardCache is a thread-safe LRU cache of computed boards keyed by registry
// version.
type BoardCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[uint64]*ranking.Board
	order   []uint64 // oldest first
}

// NewBoardCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 16.
func NewBoardCache(maxSize int) *BoardCache {
	if maxSize <= 0 {
		maxSize = 16
	}
	return &BoardCache{
		maxSize: maxSize,
		entries: make(map[uint64]*ranking.Board),
	}
}

// Get retrieves a board from the cache, or nil if not found.
func (c *BoardCache) Get(version uint64) *ranking.Board {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.entries[version]
	if !ok {
		return nil
	}

	// Move to end (most recently used)
	c.moveToEnd(version)
	return b
}

// Put adds a board to the cache, evicting the oldest if full.
func (c *BoardCache) Put(version uint64, b *ranking.Board) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[version]; ok {
		c.entries[version] = b
		c.moveToEnd(version)
		return
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[version] = b
	c.order = append(c.order, version)
}

// Len returns the number of cached boards.
func (c *BoardCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *BoardCache) moveToEnd(version uint64) {
	for i, k := range c.order {
		if k == version {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, version)
			return
		}
	}
}
