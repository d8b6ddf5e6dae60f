package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/fs"
)

var removeCmd = &cobra.Command{
	Use:   "remove <relative-path>",
	Short: "Remove an ingested document from the store",
	Long: `Remove every stored chunk belonging to a document, addressed by its
path relative to the ingest root.

Example:
  docrag remove notes/old-plan.md`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	before := st.Count()
	if err := st.DeleteDocument(fs.DocumentID(args[0])); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	fmt.Printf("Removed %d chunks for %s\n", before-st.Count(), args[0])
	return nil
}
