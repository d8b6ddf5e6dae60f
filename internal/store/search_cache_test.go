package store

import (
	"testing"
	"time"

	"docrag/internal/domain"
)

func resultWith(ids ...string) domain.SearchResult {
	r := domain.SearchResult{}
	for i, id := range ids {
		r.Matches = append(r.Matches, domain.RetrievedChunk{
			Chunk: domain.Chunk{ID: id},
			Rank:  i,
		})
	}
	return r
}

func TestCachePutGet(t *testing.T) {
	c := NewSearchCache(10, time.Minute)
	key := Key([]float32{1, 2, 3}, 5, nil)

	if _, hit := c.Get(key); hit {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put(key, c.Generation(), resultWith("a", "b"))
	got, hit := c.Get(key)
	if !hit {
		t.Fatal("expected hit")
	}
	if len(got.Matches) != 2 || got.Matches[0].Chunk.ID != "a" {
		t.Errorf("wrong cached result: %+v", got.Matches)
	}
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	q := []float32{1, 2, 3}

	k1 := Key(q, 5, nil)
	if k2 := Key(q, 6, nil); k1 == k2 {
		t.Error("topK not part of the key")
	}
	if k3 := Key([]float32{1, 2, 4}, 5, nil); k1 == k3 {
		t.Error("vector not part of the key")
	}
	filtered := Key(q, 5, &domain.SearchFilter{DocumentIDs: []string{"d1"}})
	if k1 == filtered {
		t.Error("filter not part of the key")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewSearchCache(2, time.Minute)

	k1 := Key([]float32{1}, 1, nil)
	k2 := Key([]float32{2}, 1, nil)
	k3 := Key([]float32{3}, 1, nil)

	c.Put(k1, c.Generation(), resultWith("a"))
	c.Put(k2, c.Generation(), resultWith("b"))

	// Touch k1 so k2 becomes least recently used.
	c.Get(k1)

	c.Put(k3, c.Generation(), resultWith("c"))

	if _, hit := c.Get(k2); hit {
		t.Error("expected k2 evicted")
	}
	if _, hit := c.Get(k1); !hit {
		t.Error("expected k1 retained")
	}
	if _, hit := c.Get(k3); !hit {
		t.Error("expected k3 retained")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewSearchCache(10, 10*time.Millisecond)
	key := Key([]float32{1}, 1, nil)

	c.Put(key, c.Generation(), resultWith("a"))
	time.Sleep(25 * time.Millisecond)

	if _, hit := c.Get(key); hit {
		t.Error("entry survived its TTL")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry still counted: %d", c.Size())
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewSearchCache(10, time.Minute)
	key := Key([]float32{1}, 1, nil)

	c.Put(key, c.Generation(), resultWith("a"))
	c.Invalidate()

	if _, hit := c.Get(key); hit {
		t.Error("entry survived invalidation")
	}
	if c.Size() != 0 {
		t.Errorf("size after invalidate: %d", c.Size())
	}
}

func TestCacheDropsResultFromEarlierGeneration(t *testing.T) {
	c := NewSearchCache(10, time.Minute)
	key := Key([]float32{1}, 1, nil)

	// A search captures the generation, computes its ranking, and the
	// store mutates before the result reaches the cache. The stale
	// ranking must not be cached under the new generation.
	gen := c.Generation()
	c.Invalidate()
	c.Put(key, gen, resultWith("pre-mutation-only"))

	if _, hit := c.Get(key); hit {
		t.Error("pre-mutation result cached past an invalidation")
	}

	// A result computed at the current generation still caches.
	c.Put(key, c.Generation(), resultWith("fresh"))
	got, hit := c.Get(key)
	if !hit || got.Matches[0].Chunk.ID != "fresh" {
		t.Errorf("current-generation result not cached: hit=%v", hit)
	}
}
