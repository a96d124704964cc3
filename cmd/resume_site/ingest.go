package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jonathan/resume-site/internal/db"
	"github.com/jonathan/resume-site/internal/ingestion"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestDir string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed markdown documents for question answering",
	Long: `Read every .md file below --dir, split it into chunks, embed the chunks and store them
in Postgres (pgvector). Re-ingesting a file replaces its previous chunks. Requires
DATABASE_URL and OPENAI_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "content", "Directory of markdown documents")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for ingest")
	}
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	ingester := ingestion.NewIngester(embedder, database,
		ingestion.WithBatchSize(cfg.Embedding.BatchSize),
		ingestion.WithConcurrency(cfg.Embedding.Concurrency),
		ingestion.WithLogger(logger))

	summary, err := ingester.IngestDir(ctx, ingestDir)
	if err != nil {
		return err
	}

	logger.Info("ingestion finished",
		zap.Int("files", summary.Files),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("chunks", summary.Chunks),
		zap.Int("failed", len(summary.Failed)))
	printSummary(cmd, summary)
	if total, err := database.CountChunks(ctx); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Stored:    %d chunks in total\n", total)
	}

	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d file(s) failed: %s", len(summary.Failed), strings.Join(summary.Failed, ", "))
	}
	return nil
}

func printSummary(cmd *cobra.Command, s *ingestion.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Files:     %d\n", s.Files)
	fmt.Fprintf(out, "Processed: %d\n", s.Processed)
	fmt.Fprintf(out, "Skipped:   %d\n", s.Skipped)
	fmt.Fprintf(out, "Chunks:    %d\n", s.Chunks)
	if len(s.Failed) > 0 {
		fmt.Fprintf(out, "Failed:    %s\n", strings.Join(s.Failed, ", "))
	}
}
