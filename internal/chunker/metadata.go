package chunker

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"docrag/internal/analyzer"
	"docrag/internal/domain"
)

const maxKeywords = 5

// annotate fills the derived metadata fields of a chunk from its content.
func (c *SemanticChunker) annotate(chunk *domain.Chunk) {
	content := chunk.Content

	words := analyzer.SplitWords(content)
	chunk.WordCount = len(words)
	chunk.CharacterCount = utf8.RuneCountInString(content)
	chunk.Tokens = c.tokenizer.Tokenize(content)
	chunk.TopKeywords = topKeywords(chunk.Tokens)
	chunk.SemanticDensity = density(words)
	chunk.HasNumericData = strings.ContainsFunc(content, unicode.IsDigit)
	chunk.HasListStructure = hasListStructure(content)
}

// topKeywords returns the most frequent tokens, ties broken
// alphabetically so the ordering is deterministic.
func topKeywords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxKeywords {
		terms = terms[:maxKeywords]
	}
	return terms
}

// density is the ratio of distinct words to total words, a crude
// information-richness signal in [0, 1].
func density(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[strings.ToLower(w)] = struct{}{}
	}
	return float64(len(distinct)) / float64(len(words))
}

func hasListStructure(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "• ") {
			return true
		}
		if isOrderedListItem(trimmed) {
			return true
		}
	}
	return false
}

// isOrderedListItem matches "1. item" or "2) item".
func isOrderedListItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line)-1 {
		return false
	}
	if line[i] != '.' && line[i] != ')' {
		return false
	}
	return i+1 < len(line) && line[i+1] == ' '
}
