package retriever

import (
	"sort"
	"strings"
)

// maxVariants bounds the expanded query set, original included.
const maxVariants = 4

// QueryExpander rewrites a query into paraphrase variants using a small
// synonym table for terms common in document questions. The original
// query is always the first variant.
type QueryExpander struct {
	synonyms map[string][]string
}

// NewQueryExpander creates an expander with the default synonym table.
func NewQueryExpander() *QueryExpander {
	return &QueryExpander{synonyms: defaultSynonyms()}
}

// Expand returns up to maxVariants query strings, the original first.
// Matched terms are substituted in sorted order so the variant set is
// the same on every run.
func (e *QueryExpander) Expand(query string) []string {
	variants := []string{query}
	lower := strings.ToLower(query)

	matched := make([]string, 0, 4)
	for term := range e.synonyms {
		if containsWord(lower, term) {
			matched = append(matched, term)
		}
	}
	sort.Strings(matched)

	for _, term := range matched {
		for _, sub := range e.synonyms[term] {
			variant := replaceWord(lower, term, sub)
			if variant != lower {
				variants = append(variants, variant)
			}
			if len(variants) >= maxVariants {
				return variants
			}
		}
	}

	return variants
}

func defaultSynonyms() map[string][]string {
	return map[string][]string{
		"cost":        {"price", "expense"},
		"price":       {"cost"},
		"revenue":     {"income", "earnings"},
		"profit":      {"earnings", "margin"},
		"increase":    {"growth", "rise"},
		"decrease":    {"decline", "drop"},
		"buy":         {"purchase"},
		"sell":        {"sale"},
		"car":         {"vehicle", "automobile"},
		"doctor":      {"physician"},
		"illness":     {"disease", "condition"},
		"result":      {"outcome", "finding"},
		"method":      {"approach", "procedure"},
		"summary":     {"overview", "conclusion"},
		"requirement": {"condition", "criteria"},
		"deadline":    {"due date"},
		"begin":       {"start"},
		"end":         {"finish", "conclusion"},
		"rule":        {"policy", "regulation"},
		"contract":    {"agreement"},
		"payment":     {"fee", "charge"},
	}
}

// containsWord reports whether term occurs as a whole word in text.
func containsWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		abs := idx + i
		before := abs == 0 || !isWordByte(text[abs-1])
		afterIdx := abs + len(term)
		after := afterIdx >= len(text) || !isWordByte(text[afterIdx])
		if before && after {
			return true
		}
		idx = abs + len(term)
	}
}

// replaceWord replaces whole-word occurrences of term with sub.
func replaceWord(text, term, sub string) string {
	var b strings.Builder
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			b.WriteString(text[idx:])
			return b.String()
		}
		abs := idx + i
		before := abs == 0 || !isWordByte(text[abs-1])
		afterIdx := abs + len(term)
		after := afterIdx >= len(text) || !isWordByte(text[afterIdx])

		b.WriteString(text[idx:abs])
		if before && after {
			b.WriteString(sub)
		} else {
			b.WriteString(term)
		}
		idx = afterIdx
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
