package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Store:      %s\n", dbPath)
	fmt.Printf("Chunks:     %d\n", st.Count())
	fmt.Printf("Dimension:  %d\n", st.Dimension())
	fmt.Printf("Provider:   %s (%s)\n", cfg.Embedding.Provider, embedder.ModelName())
	return nil
}
