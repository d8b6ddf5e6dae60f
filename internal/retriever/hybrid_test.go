package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"docrag/internal/analyzer"
	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/store"
)

const hybridDim = 64

func seedStore(t *testing.T, contents map[string]string) (*store.MemoryVectorStore, *embedding.MockEmbedder) {
	t.Helper()
	mem := store.NewMemoryVectorStore(hybridDim, 16, time.Minute)
	emb := embedding.NewMockEmbedder(hybridDim)
	tok := analyzer.NewTokenizer(true)

	records := make([]domain.VectorRecord, 0, len(contents))
	for id, content := range contents {
		vec, err := emb.Embed(context.Background(), content)
		if err != nil {
			t.Fatalf("embed: %v", err)
		}
		records = append(records, domain.VectorRecord{
			Chunk: domain.Chunk{
				ID:         id,
				DocumentID: "doc",
				Content:    content,
				Tokens:     tok.Tokenize(content),
			},
			Embedding: vec,
		})
	}
	if err := mem.StoreBatch(records); err != nil {
		t.Fatalf("store batch: %v", err)
	}
	return mem, emb
}

func TestHybridExactMatchRankedFirst(t *testing.T) {
	mem, emb := seedStore(t, map[string]string{
		"c1": "contract payment obligations and invoicing rules",
		"c2": "delivery schedule for overseas shipping routes",
		"c3": "employee onboarding and training materials",
	})
	r := NewHybridRetriever(mem, emb, true, 0.7)

	query := "contract payment obligations and invoicing rules"
	vec, err := emb.Embed(context.Background(), query)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	result, err := r.Retrieve(context.Background(), vec, []string{query}, 3, nil)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(result.Matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(result.Matches))
	}
	if result.Matches[0].Chunk.ID != "c1" {
		t.Errorf("top match %s, want c1", result.Matches[0].Chunk.ID)
	}
	for i, m := range result.Matches {
		if m.Rank != i {
			t.Errorf("rank %d at position %d", m.Rank, i)
		}
		if i > 0 && m.Score > result.Matches[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestHybridPureVectorPassthrough(t *testing.T) {
	mem, emb := seedStore(t, map[string]string{
		"c1": "alpha beta gamma delta",
		"c2": "epsilon zeta eta theta",
	})
	r := NewHybridRetriever(mem, emb, false, 0.7)

	query := "alpha beta gamma delta"
	vec, _ := emb.Embed(context.Background(), query)
	result, err := r.Retrieve(context.Background(), vec, []string{query}, 2, nil)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	// With blending off the top score is the raw cosine of an exact match.
	if result.Matches[0].Score < 0.999 {
		t.Errorf("exact-match cosine %f, want ~1", result.Matches[0].Score)
	}
}

func TestHybridInsufficientCandidates(t *testing.T) {
	mem, emb := seedStore(t, map[string]string{
		"only": "a single indexed chunk",
	})
	r := NewHybridRetriever(mem, emb, true, 0.7)

	vec, _ := emb.Embed(context.Background(), "anything")
	result, err := r.Retrieve(context.Background(), vec, []string{"anything"}, 5, nil)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !result.Insufficient {
		t.Error("expected Insufficient when store holds fewer records than k")
	}
	if len(result.Matches) != 1 {
		t.Errorf("got %d matches, want 1", len(result.Matches))
	}
}

type failingEmbedder struct {
	*embedding.MockEmbedder
}

func (f *failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

func TestHybridVariantFailureDegrades(t *testing.T) {
	mem, emb := seedStore(t, map[string]string{
		"c1": "quarterly revenue report",
		"c2": "annual expense summary",
	})

	query := "quarterly revenue report"
	vec, _ := emb.Embed(context.Background(), query)

	// Variant embeddings fail; the original query vector still searches.
	r := NewHybridRetriever(mem, &failingEmbedder{emb}, true, 0.7)
	result, err := r.Retrieve(context.Background(), vec, []string{query, "quarterly income report"}, 2, nil)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Errorf("got %d matches, want 2", len(result.Matches))
	}
	if result.Matches[0].Chunk.ID != "c1" {
		t.Errorf("top match %s, want c1", result.Matches[0].Chunk.ID)
	}
}

func TestHybridNoVariants(t *testing.T) {
	mem, emb := seedStore(t, map[string]string{"c1": "content"})
	r := NewHybridRetriever(mem, emb, true, 0.7)
	if _, err := r.Retrieve(context.Background(), make([]float32, hybridDim), nil, 3, nil); err == nil {
		t.Error("expected error for empty variant list")
	}
}

func TestHybridCancelledContext(t *testing.T) {
	mem, emb := seedStore(t, map[string]string{"c1": "content"})
	r := NewHybridRetriever(mem, emb, true, 0.7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Retrieve(ctx, make([]float32, hybridDim), []string{"q"}, 3, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
