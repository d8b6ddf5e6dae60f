package retriever

import (
	"sort"
	"strings"
	"unicode"

	"docrag/internal/analyzer"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// StructuralReranker re-scores candidates with a signal independent of
// the retrieval score: query-term overlap against the chunk text, plus
// small boosts when the chunk's section title matches a query term and
// when a numeric query lands on a chunk carrying numeric data.
type StructuralReranker struct {
	tokenizer *analyzer.Tokenizer
}

// NewStructuralReranker creates the default reranker.
func NewStructuralReranker() *StructuralReranker {
	return &StructuralReranker{tokenizer: analyzer.NewTokenizer(true)}
}

const (
	sectionTitleBoost = 0.15
	numericBoost      = 0.10
)

// Rerank scores chunks against the query and returns index/score pairs
// sorted by score, highest first.
func (r *StructuralReranker) Rerank(query string, chunks []domain.Chunk) ([]port.RerankedResult, error) {
	queryTokens := r.tokenizer.Tokenize(query)
	queryNumeric := strings.ContainsFunc(query, unicode.IsDigit)

	results := make([]port.RerankedResult, len(chunks))
	for i, chunk := range chunks {
		score := LexicalScore(queryTokens, chunk.Tokens)

		if chunk.SectionTitle != "" && titleMatches(queryTokens, r.tokenizer.Tokenize(chunk.SectionTitle)) {
			score += sectionTitleBoost
		}
		if queryNumeric && chunk.HasNumericData {
			score += numericBoost
		}

		results[i] = port.RerankedResult{Index: i, Score: score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Name identifies the reranking signal.
func (r *StructuralReranker) Name() string {
	return "structural"
}

func titleMatches(queryTokens, titleTokens []string) bool {
	set := make(map[string]struct{}, len(titleTokens))
	for _, t := range titleTokens {
		set[t] = struct{}{}
	}
	for _, q := range queryTokens {
		if _, ok := set[q]; ok {
			return true
		}
	}
	return false
}
