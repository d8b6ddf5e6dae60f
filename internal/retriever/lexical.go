package retriever

import "math"

// LexicalScore measures keyword agreement between query tokens and chunk
// tokens in [0, 1]: the fraction of query terms present, with a mild
// term-frequency bonus so chunks mentioning a term repeatedly edge out
// single mentions.
func LexicalScore(queryTokens, chunkTokens []string) float64 {
	if len(queryTokens) == 0 || len(chunkTokens) == 0 {
		return 0
	}

	tf := make(map[string]int, len(chunkTokens))
	for _, tok := range chunkTokens {
		tf[tok]++
	}

	var score float64
	for _, term := range uniqueTerms(queryTokens) {
		n, ok := tf[term]
		if !ok {
			continue
		}
		// 1 + log dampening keeps repeated terms from dominating.
		score += 1 + math.Log(float64(n))
	}

	unique := float64(len(uniqueTerms(queryTokens)))
	maxPerTerm := 1 + math.Log(float64(len(chunkTokens)))
	normalized := score / (unique * maxPerTerm)
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// JaccardSimilarity computes set overlap between two token slices, used
// as the diversity fallback when embeddings are unavailable.
func JaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, exists := setB[t]; exists {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}
