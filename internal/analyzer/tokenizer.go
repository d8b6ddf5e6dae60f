package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into normalized tokens with stopword removal and
// optional lemma normalization.
type Tokenizer struct {
	stopwords map[string]struct{}
	lemmatize bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(lemmatize bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		lemmatize: lemmatize,
	}
}

// Tokenize splits text into lowercase content tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := SplitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.lemmatize {
			word = Lemma(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// IsStopword reports whether the lowercase word is a stopword.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// SplitWords splits text into words on unicode word boundaries.
func SplitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
