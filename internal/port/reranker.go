package port

import "docrag/internal/domain"

// Reranker scores query-chunk pairs with a signal distinct from the
// coarse retrieval score. A reranker failure is always recoverable: the
// pipeline falls back to the pre-rerank ordering.
type Reranker interface {
	// Rerank scores the chunks against the query and returns index/score
	// pairs sorted by relevance, highest first.
	Rerank(query string, chunks []domain.Chunk) ([]RerankedResult, error)

	// Name identifies the reranking signal.
	Name() string
}

// RerankedResult references a chunk by its index in the input slice.
type RerankedResult struct {
	Index int
	Score float64
}
