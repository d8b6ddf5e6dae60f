package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/internal/chunker"
	"docrag/internal/fs"
	"docrag/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk and embed documents for retrieval",
	Long: `Ingest documents in the specified directory: each file is split into
semantic chunks, embedded, and stored in .docrag/vectors.db within the
root directory.

Examples:
  docrag ingest .               # Ingest current directory
  docrag ingest /path/to/docs   # Ingest specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
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

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No matching documents found.")
		return nil
	}

	ch := chunker.New(chunker.Config{
		TargetSize:        cfg.Chunking.TargetSize,
		MinSize:           cfg.Chunking.MinSize,
		MaxSize:           cfg.Chunking.MaxSize,
		Overlap:           cfg.Chunking.Overlap,
		MaxChunks:         cfg.Chunking.MaxChunks,
		DetectTopicShifts: cfg.Chunking.DetectTopicShifts,
		PreserveStructure: cfg.Chunking.PreserveStructure,
	})
	ingestUC := usecase.NewIngestUseCase(ch, embedder, st, cfg.Embedding.BatchSize)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Ingesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var ingested, stored, skipped int
	var warnings []string
	for _, file := range files {
		doc, err := fs.LoadDocument(file)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", file.RelPath, err))
			bar.Add(1)
			continue
		}

		summary, err := ingestUC.Ingest(cmd.Context(), doc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", file.RelPath, err))
			bar.Add(1)
			continue
		}
		ingested++
		stored += summary.ChunksStored
		skipped += summary.ChunksSkipped
		warnings = append(warnings, summary.Failures...)
		bar.Add(1)
	}
	bar.Finish()

	fmt.Printf("Ingested %d of %d files: %d chunks stored", ingested, len(files), stored)
	if skipped > 0 {
		fmt.Printf(", %d chunks skipped", skipped)
	}
	fmt.Println()
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	return nil
}
