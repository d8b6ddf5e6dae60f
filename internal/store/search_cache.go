package store

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"docrag/internal/domain"
)

// SearchCache memoizes search results keyed by (query vector, topK,
// filter). Entries are evicted least-recently-used beyond capacity and
// expire after a fixed TTL. Any store mutation bumps the generation
// counter, which invalidates every earlier entry: similarity rankings
// are global, so partial invalidation is never attempted.
type SearchCache struct {
	mu      sync.Mutex
	entries map[uint64]*cacheEntry
	order   []uint64
	maxSize int
	ttl     time.Duration
	gen     uint64
}

type cacheEntry struct {
	result    domain.SearchResult
	timestamp time.Time
	gen       uint64
}

// NewSearchCache creates a cache. Non-positive maxSize or ttl fall back
// to 100 entries / 5 minutes.
func NewSearchCache(maxSize int, ttl time.Duration) *SearchCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchCache{
		entries: make(map[uint64]*cacheEntry),
		order:   make([]uint64, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Key hashes a query vector, topK and filter into a cache key.
func Key(query []float32, topK int, filter *domain.SearchFilter) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	for _, x := range query {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(x))
		h.Write(buf[:4])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(topK))
	h.Write(buf[:])

	if filter != nil {
		h.Write([]byte(strings.Join(filter.DocumentIDs, "\x00")))
		h.Write([]byte{0xff})
		h.Write([]byte(filter.SectionTitle))
	}

	return h.Sum64()
}

// Get returns the cached result for the key if present, unexpired and
// from the current generation.
func (c *SearchCache) Get(key uint64) (domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return domain.SearchResult{}, false
	}

	if entry.gen != c.gen || time.Since(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return domain.SearchResult{}, false
	}

	c.moveToEnd(key)
	return entry.result, true
}

// Generation returns the current generation. Callers capture it while
// holding the store lock and hand it back to Put, so a result computed
// against an older snapshot can never be cached past an invalidation.
func (c *SearchCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Put stores a result computed at generation gen under the key,
// evicting the oldest entry when at capacity. A result from an earlier
// generation is dropped: the store mutated while it was being computed.
func (c *SearchCache) Put(key uint64, gen uint64, result domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{result: result, timestamp: time.Now(), gen: c.gen}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{result: result, timestamp: time.Now(), gen: c.gen}
	c.order = append(c.order, key)
}

// Invalidate drops every entry and bumps the generation.
func (c *SearchCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*cacheEntry)
	c.order = c.order[:0]
	c.gen++
}

// Size returns the number of live entries.
func (c *SearchCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *SearchCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SearchCache) moveToEnd(key uint64) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SearchCache) removeFromOrder(key uint64) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
