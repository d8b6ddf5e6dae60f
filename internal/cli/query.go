package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/domain"
	"docrag/internal/retriever"
	"docrag/internal/usecase"
)

var (
	queryText     string
	queryTopK     int
	queryJSON     bool
	queryTrace    bool
	queryDocOrder bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search ingested documents",
	Long: `Search for relevant chunks through the retrieval pipeline: query
embedding, hybrid candidate retrieval, reranking, MMR diversity
selection and context assembly.

Examples:
  docrag query -q "payment terms"
  docrag query -q "quarterly revenue" --top-k 10 --json
  docrag query -q "refund policy" --trace`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryTrace, "trace", false, "print per-stage timings")
	queryCmd.Flags().BoolVar(&queryDocOrder, "doc-order", false, "assemble context in document order")
	queryCmd.MarkFlagRequired("query")
}

// chunkResult is the JSON output shape for one retrieved chunk.
type chunkResult struct {
	DocumentID   string  `json:"document_id"`
	SectionTitle string  `json:"section_title,omitempty"`
	Index        int     `json:"index"`
	Score        float64 `json:"score"`
	Text         string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	dbPath := config.StorePath(rootDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no vector store found. Run 'docrag ingest' first")
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, rootDir, embedder)
	if err != nil {
		return err
	}
	defer st.Close()

	retrieveUC := usecase.NewRetrieveUseCase(
		embedder,
		retriever.NewHybridRetriever(st, embedder, cfg.Retrieve.HybridEnabled, cfg.Retrieve.VectorWeight),
		retriever.NewStructuralReranker(),
		retriever.NewMMRSelector(cfg.Retrieve.MMRLambda, st),
	)

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	result, err := retrieveUC.Retrieve(cmd.Context(), queryText, usecase.RetrieveOptions{
		TopK:          topK,
		CandidateK:    cfg.Retrieve.CandidateK,
		DocumentOrder: queryDocOrder || cfg.Retrieve.DocumentOrder,
		CharBudget:    cfg.Context.CharBudget,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryTrace {
		printTrace(result.Trace)
	}

	if queryJSON {
		results := make([]chunkResult, len(result.Chunks))
		for i, c := range result.Chunks {
			results[i] = chunkResult{
				DocumentID:   c.Chunk.DocumentID,
				SectionTitle: c.Chunk.SectionTitle,
				Index:        c.Chunk.Index,
				Score:        c.Score,
				Text:         c.Chunk.Content,
			}
		}
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Chunks) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if result.Insufficient {
		fmt.Fprintln(os.Stderr, "warning: fewer candidates than requested; results may be incomplete")
	}
	if result.Recovered {
		fmt.Fprintln(os.Stderr, "warning: reranker failed; original retrieval order kept")
	}

	fmt.Printf("Found %d results for: %s\n\n", len(result.Chunks), queryText)
	for i, c := range result.Chunks {
		fmt.Printf("--- %d. doc=%s", i+1, c.Chunk.DocumentID)
		if c.Chunk.SectionTitle != "" {
			fmt.Printf(" section=%q", c.Chunk.SectionTitle)
		}
		fmt.Printf(" score=%.3f ---\n%s\n\n", c.Score, c.Chunk.Content)
	}

	return nil
}

func printTrace(trace []domain.StageEvent) {
	for _, e := range trace {
		fmt.Fprintf(os.Stderr, "%-20s %10s", e.Stage, e.Duration.Round(0))
		for k, v := range e.Metadata {
			fmt.Fprintf(os.Stderr, " %s=%s", k, v)
		}
		fmt.Fprintln(os.Stderr)
	}
}
