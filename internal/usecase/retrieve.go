package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/retriever"
	"docrag/internal/store"
)

// RetrieveOptions tunes one query. Zero values fall back to defaults.
type RetrieveOptions struct {
	// TopK is the number of chunks to select for the context.
	TopK int
	// CandidateK is the candidate pool size before reranking and
	// diversity selection. Defaults to 3*TopK.
	CandidateK int
	// Filter restricts candidates by document or section.
	Filter *domain.SearchFilter
	// DocumentOrder assembles the context in original document order
	// instead of selection order.
	DocumentOrder bool
	// CharBudget caps the assembled context length in characters.
	CharBudget int
}

// RetrieveResult is a completed query: the selected chunks, the
// assembled context string, and one trace event per pipeline stage.
type RetrieveResult struct {
	Chunks       []domain.RetrievedChunk
	Context      string
	Insufficient bool
	// Recovered is set when the reranker failed and the pre-rerank
	// ordering was kept.
	Recovered bool
	Trace     []domain.StageEvent
}

const (
	defaultTopK       = 5
	defaultCharBudget = 4000

	// rerankWeight blends the reranker's score with the normalized
	// retrieval score when reordering candidates.
	rerankWeight = 0.5
)

// RetrieveUseCase runs the query pipeline: query embedding, candidate
// retrieval with query expansion, reranking, MMR diversity selection and
// context assembly. Stages execute strictly in sequence; each emits one
// StageEvent into the result trace and to the optional listener.
type RetrieveUseCase struct {
	embedder   port.Embedder
	expander   *retriever.QueryExpander
	candidates *retriever.HybridRetriever
	reranker   port.Reranker
	selector   *retriever.MMRSelector
	listener   port.StageListener
}

// NewRetrieveUseCase creates a retrieve use case. reranker may be nil
// to skip reranking.
func NewRetrieveUseCase(
	embedder port.Embedder,
	candidates *retriever.HybridRetriever,
	reranker port.Reranker,
	selector *retriever.MMRSelector,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder:   embedder,
		expander:   retriever.NewQueryExpander(),
		candidates: candidates,
		reranker:   reranker,
		selector:   selector,
	}
}

// SetStageListener registers a listener invoked once per stage, after
// the stage completes. Pass nil to remove it.
func (u *RetrieveUseCase) SetStageListener(l port.StageListener) {
	u.listener = l
}

// Retrieve answers one query. An empty candidate set is a valid result,
// not an error; the remaining stages are skipped but still traced with
// zero counts.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, opts RetrieveOptions) (*RetrieveResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.CandidateK <= 0 {
		opts.CandidateK = 3 * opts.TopK
	}
	if opts.CharBudget <= 0 {
		opts.CharBudget = defaultCharBudget
	}

	result := &RetrieveResult{}

	// Stage 1: query embedding.
	start := time.Now()
	if !u.embedder.Available() {
		return nil, domain.ErrProviderUnavailable
	}
	queryVec, err := u.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if _, err := store.ValidateVector(queryVec, u.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}
	u.emit(result, domain.StageQueryEmbedding, start, map[string]string{
		"dimensions": strconv.Itoa(len(queryVec)),
	})

	// Stage 2: candidate retrieval.
	start = time.Now()
	variants := u.expander.Expand(query)
	candidates, err := u.candidates.Retrieve(ctx, queryVec, variants, opts.CandidateK, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval: %w", err)
	}
	result.Insufficient = candidates.Insufficient
	u.emit(result, domain.StageCandidates, start, map[string]string{
		"variants":   strconv.Itoa(len(variants)),
		"candidates": strconv.Itoa(len(candidates.Matches)),
	})

	if len(candidates.Matches) == 0 {
		u.shortCircuit(result)
		return result, nil
	}

	// Stage 3: reranking. A reranker failure is recovered, keeping the
	// pre-rerank ordering.
	start = time.Now()
	ranked := candidates.Matches
	rerankMeta := map[string]string{
		"candidates": strconv.Itoa(len(ranked)),
	}
	if u.reranker != nil {
		reordered, err := u.rerank(query, ranked)
		if err != nil {
			result.Recovered = true
			rerankMeta["recovered"] = "true"
		} else {
			ranked = reordered
		}
	}
	u.emit(result, domain.StageRerank, start, rerankMeta)

	// Stage 4: MMR diversity selection.
	start = time.Now()
	selected := u.selector.Select(ranked, opts.TopK)
	u.emit(result, domain.StageDiversity, start, map[string]string{
		"selected": strconv.Itoa(len(selected)),
	})

	// Stage 5: context assembly.
	start = time.Now()
	result.Chunks, result.Context = assembleContext(selected, opts.CharBudget, opts.DocumentOrder)
	u.emit(result, domain.StageAssembly, start, map[string]string{
		"chunks": strconv.Itoa(len(result.Chunks)),
		"chars":  strconv.Itoa(len(result.Context)),
	})

	return result, nil
}

// rerank reorders candidates by a blend of the normalized retrieval
// score and the reranker's score, both on [0, 1].
func (u *RetrieveUseCase) rerank(query string, candidates []domain.RetrievedChunk) ([]domain.RetrievedChunk, error) {
	chunks := make([]domain.Chunk, len(candidates))
	for i, c := range candidates {
		chunks[i] = c.Chunk
	}

	scores, err := u.reranker.Rerank(query, chunks)
	if err != nil {
		return nil, err
	}

	maxScore := 0.0
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	reordered := make([]domain.RetrievedChunk, 0, len(candidates))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			return nil, fmt.Errorf("reranker %s returned index %d out of range", u.reranker.Name(), s.Index)
		}
		c := candidates[s.Index]
		c.Score = (1-rerankWeight)*(c.Score/maxScore) + rerankWeight*s.Score
		reordered = append(reordered, c)
	}
	if len(reordered) != len(candidates) {
		return nil, fmt.Errorf("reranker %s returned %d results for %d candidates", u.reranker.Name(), len(reordered), len(candidates))
	}

	sort.SliceStable(reordered, func(i, j int) bool {
		return reordered[i].Score > reordered[j].Score
	})
	for i := range reordered {
		reordered[i].Rank = i
	}
	return reordered, nil
}

// shortCircuit traces the skipped stages of an empty-candidate query so
// the per-stage event sequence stays complete.
func (u *RetrieveUseCase) shortCircuit(result *RetrieveResult) {
	now := time.Now()
	u.emit(result, domain.StageRerank, now, map[string]string{"candidates": "0"})
	u.emit(result, domain.StageDiversity, now, map[string]string{"selected": "0"})
	u.emit(result, domain.StageAssembly, now, map[string]string{"chunks": "0", "chars": "0"})
}

func (u *RetrieveUseCase) emit(result *RetrieveResult, stage string, start time.Time, metadata map[string]string) {
	event := domain.StageEvent{
		Stage:    stage,
		Duration: time.Since(start),
		Metadata: metadata,
	}
	result.Trace = append(result.Trace, event)
	if u.listener != nil {
		u.listener(event)
	}
}

const chunkSeparator = "\n\n"

// assembleContext concatenates selected chunks under the character
// budget. Chunks are admitted in selection order, so the lowest-priority
// ones are dropped first when the budget is tight; the final string is
// emitted in selection order or in document order.
func assembleContext(selected []domain.RetrievedChunk, budget int, documentOrder bool) ([]domain.RetrievedChunk, string) {
	if len(selected) == 0 {
		return nil, ""
	}

	included := make([]domain.RetrievedChunk, 0, len(selected))
	used := 0
	for _, c := range selected {
		need := len(c.Chunk.Content)
		if len(included) > 0 {
			need += len(chunkSeparator)
		}
		if used+need > budget {
			break
		}
		included = append(included, c)
		used += need
	}

	// Always admit at least the top selection, truncated to the budget
	// at a rune boundary so the context stays valid UTF-8.
	if len(included) == 0 {
		c := selected[0]
		if len(c.Chunk.Content) > budget {
			cut := budget
			for cut > 0 && !utf8.RuneStart(c.Chunk.Content[cut]) {
				cut--
			}
			c.Chunk.Content = c.Chunk.Content[:cut]
		}
		included = append(included, c)
	}

	ordered := included
	if documentOrder {
		ordered = make([]domain.RetrievedChunk, len(included))
		copy(ordered, included)
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Chunk.DocumentID != ordered[j].Chunk.DocumentID {
				return ordered[i].Chunk.DocumentID < ordered[j].Chunk.DocumentID
			}
			return ordered[i].Chunk.Index < ordered[j].Chunk.Index
		})
	}

	var b []byte
	for i, c := range ordered {
		if i > 0 {
			b = append(b, chunkSeparator...)
		}
		b = append(b, c.Chunk.Content...)
	}
	return included, string(b)
}
