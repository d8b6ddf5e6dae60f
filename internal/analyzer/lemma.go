package analyzer

import "strings"

// Lemma reduces an English word to a rough lemma by stripping common
// inflection suffixes. It is intentionally lighter than a full stemmer:
// keywords extracted from chunks are shown to users and should stay
// readable ("sections" -> "section", not "sect").
func Lemma(word string) string {
	if len(word) < 4 {
		return word
	}
	word = strings.ToLower(word)

	switch {
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ss"):
		return word
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return word[:len(word)-1]
	}

	if strings.HasSuffix(word, "ing") && len(word) > 5 {
		stem := word[:len(word)-3]
		return undouble(stem)
	}
	if strings.HasSuffix(word, "ed") && len(word) > 4 {
		stem := word[:len(word)-2]
		return undouble(stem)
	}

	return word
}

// undouble collapses a doubled final consonant left by suffix stripping
// ("running" -> "runn" -> "run").
func undouble(stem string) string {
	n := len(stem)
	if n >= 2 && stem[n-1] == stem[n-2] && !isVowel(stem[n-1]) {
		switch stem[n-1] {
		case 'l', 's', 'z':
			return stem
		}
		return stem[:n-1]
	}
	return stem
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
