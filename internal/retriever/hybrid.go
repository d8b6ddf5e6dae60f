package retriever

import (
	"context"
	"fmt"
	"sort"

	"docrag/internal/analyzer"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// HybridRetriever gathers candidates for a query vector, optionally
// unioning paraphrase variants and blending the vector score with a
// lexical keyword signal:
//
//	blended = w * cosine_norm + (1-w) * lexical
//
// where w is the vector weight and both sides are normalized to [0, 1].
// With Hybrid disabled the cosine score passes through untouched.
type HybridRetriever struct {
	store        port.VectorStore
	embedder     port.Embedder
	tokenizer    *analyzer.Tokenizer
	vectorWeight float64
	hybrid       bool
}

// NewHybridRetriever creates a candidate retriever. vectorWeight outside
// (0, 1] falls back to 0.7.
func NewHybridRetriever(store port.VectorStore, embedder port.Embedder, hybrid bool, vectorWeight float64) *HybridRetriever {
	if vectorWeight <= 0 || vectorWeight > 1 {
		vectorWeight = 0.7
	}
	return &HybridRetriever{
		store:        store,
		embedder:     embedder,
		tokenizer:    analyzer.NewTokenizer(true),
		vectorWeight: vectorWeight,
		hybrid:       hybrid,
	}
}

// Retrieve searches the store for every variant (the first variant must
// be the original query, whose vector is queryVec) and unions the
// results, keeping each chunk's best score. Insufficient is set when the
// store held fewer records than k.
func (r *HybridRetriever) Retrieve(ctx context.Context, queryVec []float32, variants []string, k int, filter *domain.SearchFilter) (domain.SearchResult, error) {
	if len(variants) == 0 {
		return domain.SearchResult{}, fmt.Errorf("no query variants")
	}

	best := make(map[string]domain.RetrievedChunk)
	insufficient := false

	for i, variant := range variants {
		if err := ctx.Err(); err != nil {
			return domain.SearchResult{}, err
		}

		vec := queryVec
		if i > 0 {
			var err error
			vec, err = r.embedder.Embed(ctx, variant)
			if err != nil {
				continue // variant failures degrade to the original query
			}
		}

		result, err := r.store.Search(vec, k, filter)
		if err != nil {
			if i == 0 {
				return domain.SearchResult{}, err
			}
			continue
		}
		if i == 0 {
			insufficient = result.Insufficient
		}

		for _, m := range result.Matches {
			if prev, ok := best[m.Chunk.ID]; !ok || m.Score > prev.Score {
				best[m.Chunk.ID] = m
			}
		}
	}

	candidates := make([]domain.RetrievedChunk, 0, len(best))
	for _, m := range best {
		candidates = append(candidates, m)
	}

	if r.hybrid {
		r.blend(variants[0], candidates)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	for i := range candidates {
		candidates[i].Rank = i
	}

	return domain.SearchResult{Matches: candidates, Insufficient: insufficient}, nil
}

// blend folds a lexical keyword signal into each candidate's score.
// Cosine scores are normalized against the best candidate so both
// signals live on [0, 1].
func (r *HybridRetriever) blend(query string, candidates []domain.RetrievedChunk) {
	if len(candidates) == 0 {
		return
	}
	queryTokens := r.tokenizer.Tokenize(query)

	maxScore := 0.0
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	for i := range candidates {
		vector := candidates[i].Score / maxScore
		lexical := LexicalScore(queryTokens, candidates[i].Chunk.Tokens)
		candidates[i].Score = r.vectorWeight*vector + (1-r.vectorWeight)*lexical
	}
}
