package domain

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable is returned when the embedding provider reports
// itself unavailable. The query or ingestion cannot proceed.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// ErrEmptyDocument is returned when a document with no usable text is
// handed to ingestion. Chunking itself never sees empty input.
var ErrEmptyDocument = errors.New("document has no text")

// DimensionMismatchError rejects a vector whose length does not match the
// store dimension. The insert does not happen; nothing is truncated.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// EmbeddingValidationError marks a single chunk whose embedding failed
// validation (wrong dimension, NaN or Inf component). The chunk is not
// stored; ingestion continues for the rest of the document.
type EmbeddingValidationError struct {
	ChunkID string
	Reason  string
}

func (e *EmbeddingValidationError) Error() string {
	return fmt.Sprintf("invalid embedding for chunk %s: %s", e.ChunkID, e.Reason)
}
