// Package main provides the entry point for the resume site: the HTTP server and the
// content, chat and export tooling around it.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/resume-site/internal/config"
	"github.com/jonathan/resume-site/internal/llm"
	"github.com/jonathan/resume-site/internal/observability"
	"github.com/jonathan/resume-site/internal/variants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	// set up by PersistentPreRunE for every command
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "resume_site",
	Short: "Interactive resume site",
	Long: "Serves a resume whose content is resolved per audience variant, with expandable " +
		"sections and a streaming chat grounded in the resume.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		load := config.LoadOrDefault
		if cmd.Flags().Changed("config") {
			// an explicitly named file must exist
			load = config.LoadConfig
		}
		loaded, err := load(configPath)
		if err != nil {
			return err
		}
		// explicit zeros in the file fall back to the defaults
		merged := loaded.MergeWithDefaults(config.Default())
		loaded = &merged
		loaded.ApplyEnv(os.Getenv)
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger, err = observability.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.With(zap.String("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to TOML config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadLibrary loads the content library from the configured directory, or the embedded
// content when none is configured.
func loadLibrary() (*variants.Library, error) {
	opts := []variants.Option{variants.WithLogger(logger)}
	if cfg.Content.Dir != "" {
		lib, err := variants.LoadDir(cfg.Content.Dir, cfg.Content.DefaultVariant, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load content from %s: %w", cfg.Content.Dir, err)
		}
		return lib, nil
	}
	lib, err := variants.Load(variants.DataFS(), cfg.Content.DefaultVariant, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded content: %w", err)
	}
	return lib, nil
}

// newChatClient creates the client for the configured provider
func newChatClient(ctx context.Context) (llm.Client, error) {
	client, err := llm.NewClient(ctx, cfg.ChatModel(), cfg.APIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLM.Provider, err)
	}
	return client, nil
}

// newEmbedder creates the embedder used for ingestion and retrieval
func newEmbedder() (llm.Embedder, error) {
	embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings: %w", err)
	}
	return embedder, nil
}
