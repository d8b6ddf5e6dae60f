package port

import "docrag/internal/domain"

// VectorStore stores chunk vectors and answers similarity searches.
// Implementations must support concurrent searches; writes are serialized.
type VectorStore interface {
	// Store inserts one record, caching its norm. A record whose vector
	// length differs from the store dimension is rejected with a
	// DimensionMismatchError.
	Store(record domain.VectorRecord) error

	// StoreBatch inserts records atomically: either all records are
	// visible to subsequent searches or none are.
	StoreBatch(records []domain.VectorRecord) error

	// Search returns the topK most similar records by cosine similarity,
	// descending, ties broken by insertion order. When fewer than topK
	// records match, all of them are returned with Insufficient set.
	Search(query []float32, topK int, filter *domain.SearchFilter) (domain.SearchResult, error)

	// DeleteDocument removes every record belonging to the document.
	DeleteDocument(documentID string) error

	// Clear removes all records.
	Clear() error

	// Count returns the number of stored records.
	Count() int

	// Dimension returns the store-wide vector dimension.
	Dimension() int
}
