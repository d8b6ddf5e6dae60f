package chunker

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"docrag/internal/analyzer"
	"docrag/internal/domain"
)

// snapWindow is how far (in bytes) around a raw word-count cut the
// chunker searches for a sentence terminator to snap the boundary to.
const snapWindow = 100

// Config controls semantic chunking. Sizes are in words.
type Config struct {
	TargetSize        int
	MinSize           int
	MaxSize           int
	Overlap           int
	MaxChunks         int
	DetectTopicShifts bool
	PreserveStructure bool
}

// DefaultConfig provides sane defaults for prose documents.
func DefaultConfig() Config {
	return Config{
		TargetSize:        400,
		MinSize:           100,
		MaxSize:           800,
		Overlap:           75,
		MaxChunks:         100,
		DetectTopicShifts: true,
		PreserveStructure: true,
	}
}

// SemanticChunker splits extracted document text into overlapping,
// metadata-enriched chunks. It is a pure function of text and config:
// no I/O, and it never fails for non-empty input. When structure
// detection finds nothing it degrades to fixed-size cutting with
// sentence snapping.
type SemanticChunker struct {
	cfg       Config
	tokenizer *analyzer.Tokenizer
}

// New creates a SemanticChunker. Zero or negative config values fall
// back to defaults.
func New(cfg Config) *SemanticChunker {
	def := DefaultConfig()
	if cfg.TargetSize <= 0 {
		cfg.TargetSize = def.TargetSize
	}
	if cfg.MinSize <= 0 {
		cfg.MinSize = def.MinSize
	}
	if cfg.MaxSize < cfg.TargetSize {
		cfg.MaxSize = def.MaxSize
		if cfg.MaxSize < cfg.TargetSize {
			cfg.MaxSize = cfg.TargetSize * 2
		}
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = def.Overlap
	}
	if cfg.Overlap >= cfg.TargetSize {
		cfg.Overlap = cfg.TargetSize / 2
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = def.MaxChunks
	}
	return &SemanticChunker{
		cfg:       cfg,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

// Chunk splits the document text into chunks in increasing Index order.
// Consecutive chunks share a word span of at least the configured
// overlap; text shorter than MinSize words yields exactly one chunk.
func (c *SemanticChunker) Chunk(doc domain.Document) []domain.Chunk {
	text := doc.Text
	spans := wordSpans(text)
	if len(spans) == 0 {
		return nil
	}

	var sections []Section
	if c.cfg.PreserveStructure {
		sections = DetectSections(text)
	}
	var boundaries []int
	if c.cfg.DetectTopicShifts {
		boundaries = DetectTopicBoundaries(text)
	}

	if len(spans) < c.cfg.MinSize {
		chunk := c.buildChunk(doc, sections, strings.TrimSpace(text), 0, len(text), 0)
		return []domain.Chunk{chunk}
	}

	var chunks []domain.Chunk
	cursor := 0

	for cursor < len(spans) && len(chunks) < c.cfg.MaxChunks {
		endIdx := cursor + c.cfg.TargetSize - 1
		if endIdx >= len(spans) {
			endIdx = len(spans) - 1
		}
		cut := spans[endIdx].end

		if endIdx < len(spans)-1 {
			cut = c.snapBoundary(text, boundaries, cut, spans[cursor].end)
			endIdx = lastWordWithin(spans, cursor, cut)

			if endIdx-cursor+1 > c.cfg.MaxSize {
				endIdx = cursor + c.cfg.MaxSize - 1
				cut = spans[endIdx].end
			}

			// A tail shorter than the overlap would be wholly contained
			// in this chunk's trailing span anyway; fold it in.
			if rem := len(spans) - 1 - endIdx; rem > 0 && rem < c.cfg.Overlap {
				endIdx = len(spans) - 1
				cut = len(text)
			}
		}

		start := spans[cursor].start
		if cursor == 0 {
			start = 0
		}
		end := cut
		if endIdx == len(spans)-1 {
			end = len(text)
		}
		if end <= start {
			break
		}

		chunks = append(chunks, c.buildChunk(doc, sections, text[start:end], start, end, len(chunks)))

		if endIdx >= len(spans)-1 {
			break
		}
		next := endIdx + 1 - c.cfg.Overlap
		if next <= cursor {
			next = cursor + 1
		}
		cursor = next
	}

	return chunks
}

func (c *SemanticChunker) buildChunk(doc domain.Document, sections []Section, content string, start, end, index int) domain.Chunk {
	chunk := domain.Chunk{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		Content:      content,
		Index:        index,
		StartOffset:  start,
		EndOffset:    end,
		SectionTitle: TitleAt(sections, start),
		PageNumber:   pageAt(doc.PageOffsets, start),
	}
	c.annotate(&chunk)
	return chunk
}

// snapBoundary moves a raw word-count cut to the nearest sentence
// terminator within the snap window, preferring a topic boundary when
// one falls inside the window. minEnd guards against producing a
// zero-word chunk. When no boundary exists, the raw cut stands.
func (c *SemanticChunker) snapBoundary(text string, boundaries []int, cut, minEnd int) int {
	lo := cut - snapWindow
	if lo < minEnd {
		lo = minEnd
	}
	hi := cut + snapWindow
	if hi > len(text) {
		hi = len(text)
	}

	// Topic boundaries win: cut right before the discourse marker.
	best, bestDist := -1, snapWindow+1
	for _, b := range boundaries {
		if b <= lo || b > hi {
			continue
		}
		if d := abs(b - cut); d < bestDist {
			best, bestDist = b, d
		}
	}
	if best >= 0 {
		return best
	}

	// Otherwise the nearest sentence terminator.
	best, bestDist = -1, snapWindow+1
	for p := lo; p < hi; p++ {
		if !isSentenceEnd(text, p) {
			continue
		}
		if d := abs(p + 1 - cut); d < bestDist {
			best, bestDist = p+1, d
		}
	}
	if best > minEnd {
		return best
	}

	return cut
}

// isSentenceEnd reports whether text[p] terminates a sentence.
func isSentenceEnd(text string, p int) bool {
	switch text[p] {
	case '.', '!', '?':
	default:
		return false
	}
	if p+1 >= len(text) {
		return true
	}
	next := text[p+1]
	return next == ' ' || next == '\n' || next == '\t' || next == '"' || next == ')'
}

// lastWordWithin returns the index of the last word ending at or before
// the cut, never earlier than from.
func lastWordWithin(spans []span, from, cut int) int {
	idx := from
	for i := from; i < len(spans) && spans[i].end <= cut; i++ {
		idx = i
	}
	return idx
}

type span struct {
	start int
	end   int
}

// wordSpans returns byte-offset spans for every word, using the same
// boundary rule as analyzer.SplitWords.
func wordSpans(text string) []span {
	var spans []span
	start := -1

	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, span{start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start: start, end: len(text)})
	}

	return spans
}

func pageAt(pageOffsets map[int]int, offset int) *int {
	if len(pageOffsets) == 0 {
		return nil
	}
	page, bestOffset := 0, -1
	for p, o := range pageOffsets {
		if o <= offset && o > bestOffset {
			page, bestOffset = p, o
		}
	}
	if bestOffset < 0 {
		return nil
	}
	return &page
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
