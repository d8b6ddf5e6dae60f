package domain

import "time"

// Document is the unit of ingestion: extracted text plus provenance.
// Format parsing happens upstream; by the time a Document reaches this
// core its Text is already plain extracted text.
type Document struct {
	ID    string
	Title string
	Text  string
	// PageOffsets maps 1-based page numbers to the character offset at
	// which that page starts in Text. Optional.
	PageOffsets map[int]int
	ModTime     time.Time
}

// Chunk is a contiguous, possibly overlapping span of a document's text
// with metadata attached at chunking time.
type Chunk struct {
	ID           string
	DocumentID   string
	Content      string
	Index        int
	StartOffset  int
	EndOffset    int
	PageNumber   *int
	SectionTitle string

	TopKeywords      []string
	SemanticDensity  float64
	HasNumericData   bool
	HasListStructure bool
	WordCount        int
	CharacterCount   int

	// Tokens are the normalized content tokens, kept for lexical scoring
	// and for MMR fallback similarity.
	Tokens []string
}

// VectorRecord is the stored counterpart of a Chunk plus its embedding.
// Norm is the Euclidean norm of Embedding, cached at insert time.
type VectorRecord struct {
	Chunk     Chunk
	Embedding []float32
	Norm      float64
}

// RetrievedChunk is a chunk plus the score and final rank at which it was
// returned for one query. Transient, never persisted.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
	Rank  int
}

// SearchResult is the outcome of a similarity search. Insufficient is set
// when fewer records existed than were requested; that is a warning, not
// an error.
type SearchResult struct {
	Matches      []RetrievedChunk
	Insufficient bool
}

// SearchFilter restricts a similarity search to a subset of records.
// A nil filter matches everything.
type SearchFilter struct {
	DocumentIDs  []string
	SectionTitle string
}

// Matches reports whether the chunk passes the filter.
func (f *SearchFilter) Matches(c Chunk) bool {
	if f == nil {
		return true
	}
	if len(f.DocumentIDs) > 0 {
		found := false
		for _, id := range f.DocumentIDs {
			if c.DocumentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.SectionTitle != "" && c.SectionTitle != f.SectionTitle {
		return false
	}
	return true
}

// StageEvent is emitted once per pipeline stage. Stage names and the
// metadata keys "dimensions", "variants", "candidates", "selected",
// "chunks" and "chars" are consumed by downstream tooling and must not
// be renamed.
type StageEvent struct {
	Stage    string
	Duration time.Duration
	Metadata map[string]string
}

// Pipeline stage names.
const (
	StageQueryEmbedding = "query_embedding"
	StageCandidates     = "candidate_retrieval"
	StageRerank         = "rerank"
	StageDiversity      = "diversity_selection"
	StageAssembly       = "context_assembly"
)

// IngestSummary reports the outcome of ingesting one document. Per-chunk
// embedding failures land in Failures; they do not abort the document.
type IngestSummary struct {
	DocumentID    string
	ChunksCreated int
	ChunksStored  int
	ChunksSkipped int
	Failures      []string
	Duration      time.Duration
}
