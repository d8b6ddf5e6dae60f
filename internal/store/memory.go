package store

import (
	"sort"
	"sync"
	"time"

	"docrag/internal/domain"
)

// MemoryVectorStore keeps records in memory and answers searches with a
// full linear scan over precomputed norms. The scan is an accepted
// trade-off for moderate collection sizes; the cache amortizes repeated
// identical queries, not the cost of novel ones.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.VectorRecord
	byID      map[string]int
	cache     *SearchCache
}

// NewMemoryVectorStore creates an empty store for vectors of the given
// dimension.
func NewMemoryVectorStore(dimension int, cacheSize int, cacheTTL time.Duration) *MemoryVectorStore {
	return &MemoryVectorStore{
		dimension: dimension,
		byID:      make(map[string]int),
		cache:     NewSearchCache(cacheSize, cacheTTL),
	}
}

// Store inserts one record. See StoreBatch.
func (s *MemoryVectorStore) Store(record domain.VectorRecord) error {
	return s.StoreBatch([]domain.VectorRecord{record})
}

// StoreBatch validates every record's dimension first and then inserts
// them all, so a rejected batch leaves the store untouched. Norms are
// computed at insert time. The search cache is invalidated.
func (s *MemoryVectorStore) StoreBatch(records []domain.VectorRecord) error {
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return &domain.DimensionMismatchError{Want: s.dimension, Got: len(r.Embedding)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.Norm == 0 {
			r.Norm = Norm(r.Embedding)
		}
		if idx, exists := s.byID[r.Chunk.ID]; exists {
			s.records[idx] = r
			continue
		}
		s.byID[r.Chunk.ID] = len(s.records)
		s.records = append(s.records, r)
	}

	s.cache.Invalidate()
	return nil
}

// Search returns the topK most similar records in descending score
// order, ties broken by insertion order. Fewer matching records than
// topK sets Insufficient instead of failing. Results for identical
// (query, topK, filter) triples are served from the cache until the
// store changes or the entry expires.
func (s *MemoryVectorStore) Search(query []float32, topK int, filter *domain.SearchFilter) (domain.SearchResult, error) {
	if len(query) != s.dimension {
		return domain.SearchResult{}, &domain.DimensionMismatchError{Want: s.dimension, Got: len(query)}
	}
	if topK <= 0 {
		return domain.SearchResult{}, nil
	}

	key := Key(query, topK, filter)
	if cached, hit := s.cache.Get(key); hit {
		return cached, nil
	}

	s.mu.RLock()
	// Mutations invalidate the cache while holding the write lock, so
	// the generation read here is consistent with the scanned snapshot.
	gen := s.cache.Generation()
	queryNorm := Norm(query)

	type scored struct {
		chunk domain.Chunk
		score float64
		order int
	}
	candidates := make([]scored, 0, len(s.records))
	for i, r := range s.records {
		if !filter.Matches(r.Chunk) {
			continue
		}
		candidates = append(candidates, scored{
			chunk: r.Chunk,
			score: Cosine(query, r.Embedding, queryNorm, r.Norm),
			order: i,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	result := domain.SearchResult{Insufficient: len(candidates) < topK}
	n := topK
	if n > len(candidates) {
		n = len(candidates)
	}
	result.Matches = make([]domain.RetrievedChunk, n)
	for i := 0; i < n; i++ {
		result.Matches[i] = domain.RetrievedChunk{
			Chunk: candidates[i].chunk,
			Score: candidates[i].score,
			Rank:  i,
		}
	}

	s.cache.Put(key, gen, result)
	return result, nil
}

// DeleteDocument removes every record belonging to the document and
// invalidates the cache.
func (s *MemoryVectorStore) DeleteDocument(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.Chunk.DocumentID != documentID {
			kept = append(kept, r)
		}
	}
	s.records = kept

	s.byID = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.byID[r.Chunk.ID] = i
	}

	s.cache.Invalidate()
	return nil
}

// Clear removes all records and invalidates the cache.
func (s *MemoryVectorStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.byID = make(map[string]int)
	s.cache.Invalidate()
	return nil
}

// Count returns the number of stored records.
func (s *MemoryVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Dimension returns the store-wide vector dimension.
func (s *MemoryVectorStore) Dimension() int {
	return s.dimension
}

// Embedding returns the stored embedding for a chunk id. Used by the
// pipeline's diversity stage to compare candidates against each other.
func (s *MemoryVectorStore) Embedding(chunkID string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[chunkID]
	if !ok {
		return nil, false
	}
	return s.records[idx].Embedding, true
}

// CacheSize exposes the number of live cache entries, for diagnostics.
func (s *MemoryVectorStore) CacheSize() int {
	return s.cache.Size()
}
