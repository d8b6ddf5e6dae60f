package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/store"
)

// IngestUseCase turns a document into embedded chunks and commits them
// to the vector store. The commit is all-or-nothing per document:
// cancellation or a store error leaves no partial state behind.
type IngestUseCase struct {
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.VectorStore
	batchSize int
}

// NewIngestUseCase creates an ingest use case. batchSize bounds each
// embedding request; values below 1 fall back to 32.
func NewIngestUseCase(chunker port.Chunker, embedder port.Embedder, vs port.VectorStore, batchSize int) *IngestUseCase {
	if batchSize < 1 {
		batchSize = 32
	}
	return &IngestUseCase{
		chunker:   chunker,
		embedder:  embedder,
		store:     vs,
		batchSize: batchSize,
	}
}

// Ingest chunks, embeds and stores one document. Chunks whose embedding
// fails validation are skipped and reported in the summary; they never
// abort the document. Replaces any previously stored chunks for the
// same document id.
func (u *IngestUseCase) Ingest(ctx context.Context, doc domain.Document) (*domain.IngestSummary, error) {
	started := time.Now()

	if !u.embedder.Available() {
		return nil, domain.ErrProviderUnavailable
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("document %s: %w", doc.ID, domain.ErrEmptyDocument)
	}

	chunks := u.chunker.Chunk(doc)
	summary := &domain.IngestSummary{
		DocumentID:    doc.ID,
		ChunksCreated: len(chunks),
	}
	if len(chunks) == 0 {
		summary.Duration = time.Since(started)
		return summary, nil
	}

	records := make([]domain.VectorRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += u.batchSize {
		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := u.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch for %s: %w", doc.ID, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embed batch for %s: got %d vectors for %d chunks", doc.ID, len(vectors), len(batch))
		}

		for i, vec := range vectors {
			if _, err := store.ValidateVector(vec, u.store.Dimension()); err != nil {
				summary.ChunksSkipped++
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", batch[i].ID, err))
				continue
			}
			records = append(records, domain.VectorRecord{Chunk: batch[i], Embedding: vec})
		}
	}

	// Nothing is committed before this point, so cancellation leaves the
	// store untouched.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := u.store.DeleteDocument(doc.ID); err != nil {
		return nil, fmt.Errorf("replace document %s: %w", doc.ID, err)
	}
	if len(records) > 0 {
		if err := u.store.StoreBatch(records); err != nil {
			return nil, fmt.Errorf("store document %s: %w", doc.ID, err)
		}
	}

	summary.ChunksStored = len(records)
	summary.Duration = time.Since(started)
	return summary, nil
}

// Remove deletes every stored chunk belonging to the document.
func (u *IngestUseCase) Remove(documentID string) error {
	if err := u.store.DeleteDocument(documentID); err != nil {
		return fmt.Errorf("remove document %s: %w", documentID, err)
	}
	return nil
}
