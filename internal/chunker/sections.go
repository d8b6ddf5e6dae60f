package chunker

import (
	"strings"
	"unicode"
)

// Section is a heading-delimited region of the document. End is the
// offset of the next heading (or end of text).
type Section struct {
	Title string
	Start int
	End   int
}

// DetectSections scans lines for heading-like patterns: markdown
// headers, short ALL-CAPS lines, numbered headers ("2.1 Methods") and
// roman-numeral headers ("IV. Results").
func DetectSections(text string) []Section {
	var sections []Section

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if title, ok := headingTitle(trimmed); ok {
			if n := len(sections); n > 0 {
				sections[n-1].End = offset
			}
			sections = append(sections, Section{Title: title, Start: offset})
		}
		offset += len(line)
	}

	if n := len(sections); n > 0 {
		sections[n-1].End = len(text)
	}
	return sections
}

// TitleAt returns the title of the section containing the offset, or ""
// when the offset precedes every detected heading.
func TitleAt(sections []Section, offset int) string {
	title := ""
	for _, s := range sections {
		if s.Start <= offset {
			title = s.Title
		} else {
			break
		}
	}
	return title
}

func headingTitle(line string) (string, bool) {
	if line == "" || len(line) > 80 {
		return "", false
	}

	// Markdown header.
	if strings.HasPrefix(line, "#") {
		title := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if title != "" {
			return title, true
		}
		return "", false
	}

	// Numbered header: "3. Results", "2.1.4 Detail".
	if title, ok := numberedHeading(line); ok {
		return title, true
	}

	// Roman-numeral header: "IV. Results".
	if title, ok := romanHeading(line); ok {
		return title, true
	}

	// Short ALL-CAPS line with at least one letter.
	if isAllCapsHeading(line) {
		return strings.TrimSpace(line), true
	}

	return "", false
}

func numberedHeading(line string) (string, bool) {
	i := 0
	sawDigit := false
	for i < len(line) {
		c := line[i]
		if c >= '0' && c <= '9' {
			sawDigit = true
			i++
			continue
		}
		if (c == '.' || c == ')') && sawDigit {
			i++
			continue
		}
		break
	}
	if !sawDigit || i == 0 || i >= len(line) || line[i] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(line[i:])
	// Prose sentences that merely start with a number are not headings.
	if title == "" || strings.HasSuffix(title, ".") || len(strings.Fields(title)) > 8 {
		return "", false
	}
	if r := []rune(title)[0]; !unicode.IsUpper(r) {
		return "", false
	}
	return title, true
}

func romanHeading(line string) (string, bool) {
	i := 0
	for i < len(line) && strings.ContainsRune("IVXLC", rune(line[i])) {
		i++
	}
	if i == 0 || i >= len(line) || (line[i] != '.' && line[i] != ')') {
		return "", false
	}
	title := strings.TrimSpace(line[i+1:])
	if title == "" || len(strings.Fields(title)) > 8 {
		return "", false
	}
	return title, true
}

func isAllCapsHeading(line string) bool {
	if len(line) > 60 || strings.HasSuffix(line, ".") {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters >= 3 && len(strings.Fields(line)) <= 8
}

// topicMarkers are discourse transitions that signal a topic shift when
// they open a sentence.
var topicMarkers = []string{
	"However,",
	"In conclusion,",
	"In summary,",
	"Furthermore,",
	"Moreover,",
	"On the other hand,",
	"In contrast,",
	"Meanwhile,",
	"Nevertheless,",
	"Turning to",
	"Finally,",
}

// DetectTopicBoundaries returns offsets at which a discourse-transition
// marker opens a sentence. These are soft break points: chunk boundaries
// prefer to fall just before them.
func DetectTopicBoundaries(text string) []int {
	var boundaries []int

	for _, marker := range topicMarkers {
		from := 0
		for {
			idx := strings.Index(text[from:], marker)
			if idx < 0 {
				break
			}
			abs := from + idx
			if startsSentence(text, abs) {
				boundaries = append(boundaries, abs)
			}
			from = abs + len(marker)
		}
	}

	return boundaries
}

// startsSentence reports whether the offset begins a sentence: start of
// text, after a newline, or after a sentence terminator plus space.
func startsSentence(text string, offset int) bool {
	if offset == 0 {
		return true
	}
	prev := text[offset-1]
	if prev == '\n' {
		return true
	}
	if prev == ' ' && offset >= 2 {
		switch text[offset-2] {
		case '.', '!', '?':
			return true
		}
	}
	return false
}
