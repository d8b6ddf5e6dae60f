package retriever

import (
	"docrag/internal/domain"
	"docrag/internal/store"
)

// EmbeddingLookup resolves the stored embedding for a chunk id.
// Satisfied by the vector stores.
type EmbeddingLookup interface {
	Embedding(chunkID string) ([]float32, bool)
}

// MMRSelector diversifies a candidate list with Maximal Marginal
// Relevance: at each step it picks the candidate maximizing
//
//	lambda * relevance(c) - (1-lambda) * maxSim(c, selected)
//
// Higher lambda favors pure relevance. Similarity between candidates is
// embedding cosine when both embeddings are available and token Jaccard
// otherwise.
type MMRSelector struct {
	lambda float64
	lookup EmbeddingLookup
}

// NewMMRSelector creates a selector. lambda outside [0, 1] falls back
// to 0.7. lookup may be nil, forcing the Jaccard fallback.
func NewMMRSelector(lambda float64, lookup EmbeddingLookup) *MMRSelector {
	if lambda < 0 || lambda > 1 {
		lambda = 0.7
	}
	return &MMRSelector{lambda: lambda, lookup: lookup}
}

// Select returns up to n candidates, never repeating a chunk id, ranked
// in selection order.
func (s *MMRSelector) Select(candidates []domain.RetrievedChunk, n int) []domain.RetrievedChunk {
	if len(candidates) == 0 || n <= 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	selected := make([]domain.RetrievedChunk, 0, n)
	remaining := make([]domain.RetrievedChunk, len(candidates))
	copy(remaining, candidates)
	chosen := make(map[string]struct{}, n)

	for len(selected) < n && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, candidate := range remaining {
			if _, dup := chosen[candidate.Chunk.ID]; dup {
				continue
			}

			relevance := candidate.Score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				sim := s.similarity(candidate.Chunk, sel.Chunk)
				if sim > maxSim {
					maxSim = sim
				}
			}

			mmr := s.lambda*relevance - (1-s.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}

		pick := remaining[bestIdx]
		pick.Rank = len(selected)
		selected = append(selected, pick)
		chosen[pick.Chunk.ID] = struct{}{}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func (s *MMRSelector) similarity(a, b domain.Chunk) float64 {
	if s.lookup != nil {
		va, okA := s.lookup.Embedding(a.ID)
		vb, okB := s.lookup.Embedding(b.ID)
		if okA && okB {
			return store.CosineSim(va, vb)
		}
	}
	return JaccardSimilarity(a.Tokens, b.Tokens)
}
