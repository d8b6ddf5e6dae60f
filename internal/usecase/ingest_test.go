package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"docrag/internal/chunker"
	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/store"
)

const testDim = 64

type stubChunker struct {
	chunks []domain.Chunk
}

func (s *stubChunker) Chunk(domain.Document) []domain.Chunk {
	return s.chunks
}

// stubEmbedder serves canned vectors by chunk content and ignores the
// context, unlike the mock embedder.
type stubEmbedder struct {
	vectors   map[string][]float32
	available bool
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return s.vectors[text], nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vectors[t]
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return testDim }
func (s *stubEmbedder) Available() bool   { return s.available }
func (s *stubEmbedder) ModelName() string { return "stub" }

func ingestDoc(text string) domain.Document {
	return domain.Document{ID: "doc-1", Title: "Test", Text: text}
}

func newIngest(t *testing.T) (*IngestUseCase, *store.MemoryVectorStore) {
	t.Helper()
	mem := store.NewMemoryVectorStore(testDim, 16, time.Minute)
	emb := embedding.NewMockEmbedder(testDim)
	ch := chunker.New(chunker.Config{
		TargetSize: 40,
		MinSize:    10,
		MaxSize:    80,
		Overlap:    8,
		MaxChunks:  100,
	})
	return NewIngestUseCase(ch, emb, mem, 4), mem
}

func longText(words int) string {
	out := make([]byte, 0, words*8)
	for i := 0; i < words; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, []byte("content")...)
		out = append(out, byte('a'+i%26))
		if i%9 == 8 {
			out = append(out, '.')
		}
	}
	return string(out)
}

func TestIngestStoresAllChunks(t *testing.T) {
	u, mem := newIngest(t)

	summary, err := u.Ingest(context.Background(), ingestDoc(longText(200)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.ChunksCreated == 0 {
		t.Fatal("no chunks created")
	}
	if summary.ChunksStored != summary.ChunksCreated {
		t.Errorf("stored %d of %d chunks", summary.ChunksStored, summary.ChunksCreated)
	}
	if summary.ChunksSkipped != 0 || len(summary.Failures) != 0 {
		t.Errorf("unexpected failures: %v", summary.Failures)
	}
	if mem.Count() != summary.ChunksStored {
		t.Errorf("store count %d, summary says %d", mem.Count(), summary.ChunksStored)
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	u, mem := newIngest(t)

	_, err := u.Ingest(context.Background(), ingestDoc("   \n\t  "))
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Errorf("got %v, want ErrEmptyDocument", err)
	}
	if mem.Count() != 0 {
		t.Errorf("store count %d after rejected ingest", mem.Count())
	}
}

func TestIngestProviderUnavailable(t *testing.T) {
	mem := store.NewMemoryVectorStore(testDim, 16, time.Minute)
	emb := &stubEmbedder{available: false}
	u := NewIngestUseCase(chunker.New(chunker.DefaultConfig()), emb, mem, 4)

	_, err := u.Ingest(context.Background(), ingestDoc("some text"))
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("got %v, want ErrProviderUnavailable", err)
	}
}

func TestIngestSkipsInvalidEmbeddings(t *testing.T) {
	mem := store.NewMemoryVectorStore(testDim, 16, time.Minute)

	good := make([]float32, testDim)
	good[0] = 1
	bad := make([]float32, testDim)
	bad[0] = float32(math.NaN())

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "first"},
		{ID: "c2", DocumentID: "doc-1", Content: "second"},
		{ID: "c3", DocumentID: "doc-1", Content: "third"},
	}
	emb := &stubEmbedder{
		available: true,
		vectors: map[string][]float32{
			"first":  good,
			"second": bad,
			"third":  good,
		},
	}

	u := NewIngestUseCase(&stubChunker{chunks: chunks}, emb, mem, 4)
	summary, err := u.Ingest(context.Background(), ingestDoc("irrelevant"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.ChunksStored != 2 || summary.ChunksSkipped != 1 {
		t.Errorf("stored=%d skipped=%d, want 2/1", summary.ChunksStored, summary.ChunksSkipped)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("failures %v, want one entry", summary.Failures)
	}
	if mem.Count() != 2 {
		t.Errorf("store count %d, want 2", mem.Count())
	}
}

func TestIngestCancellationStoresNothing(t *testing.T) {
	mem := store.NewMemoryVectorStore(testDim, 16, time.Minute)

	vec := make([]float32, testDim)
	vec[0] = 1
	chunks := []domain.Chunk{{ID: "c1", DocumentID: "doc-1", Content: "text"}}
	emb := &stubEmbedder{available: true, vectors: map[string][]float32{"text": vec}}

	u := NewIngestUseCase(&stubChunker{chunks: chunks}, emb, mem, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := u.Ingest(ctx, ingestDoc("text")); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if mem.Count() != 0 {
		t.Errorf("cancelled ingest left %d records", mem.Count())
	}
}

func TestIngestReplacesDocument(t *testing.T) {
	u, mem := newIngest(t)

	if _, err := u.Ingest(context.Background(), ingestDoc(longText(200))); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	summary, err := u.Ingest(context.Background(), ingestDoc(longText(60)))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if mem.Count() != summary.ChunksStored {
		t.Errorf("store count %d, want %d after re-ingest", mem.Count(), summary.ChunksStored)
	}
}

func TestRemoveDeletesDocument(t *testing.T) {
	u, mem := newIngest(t)

	if _, err := u.Ingest(context.Background(), ingestDoc(longText(120))); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if mem.Count() == 0 {
		t.Fatal("nothing stored")
	}
	if err := u.Remove("doc-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mem.Count() != 0 {
		t.Errorf("store count %d after remove", mem.Count())
	}
}
