package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/embedding"
	"docrag/internal/port"
	"docrag/internal/store"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Document retrieval core - chunk, embed and search local documents",
	Long: `docrag splits documents into semantically coherent chunks, embeds them
and answers queries through a hybrid retrieval pipeline with MMR
diversity selection.

Example usage:
  docrag ingest ./docs               # Chunk and embed documents
  docrag query -q "payment terms"    # Retrieve relevant chunks
  docrag stats                       # Show store statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

// newEmbedder builds the configured embedding provider.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock", "":
		return embedding.NewMockEmbedder(256), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// openStore opens the persistent vector store for the root directory,
// sized to the embedder's dimension.
func openStore(cfg *config.Config, dir string, embedder port.Embedder) (*store.BoltVectorStore, error) {
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create .docrag directory: %w", err)
	}
	st, err := store.OpenBolt(config.StorePath(dir), embedder.Dimension(), cfg.Cache.Size, cfg.CacheTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return st, nil
}
