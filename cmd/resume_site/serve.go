package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/resume-site/internal/db"
	"github.com/jonathan/resume-site/internal/llm"
	"github.com/jonathan/resume-site/internal/rendering"
	"github.com/jonathan/resume-site/internal/retrieval"
	"github.com/jonathan/resume-site/internal/server"
	"github.com/jonathan/resume-site/internal/server/ratelimit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resume site server",
	Long: `Start an HTTP server that renders the resume pages, serves the content API and bridges
the chat to the configured model. POST /api/query is enabled when DATABASE_URL is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	lib, err := loadLibrary()
	if err != nil {
		return err
	}
	for slug, ids := range lib.DanglingBulletIDs() {
		logger.Warn("variant selects bullets that do not exist; run resolve --check",
			zap.String("variant", slug), zap.Int("count", len(ids)))
	}

	client, err := newChatClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	renderer, err := rendering.NewRenderer()
	if err != nil {
		return err
	}

	var (
		answerer server.Answerer
		database server.Pinger
	)
	if cfg.Database.URL != "" {
		assistant, conn, err := newAssistant(ctx, client)
		if err != nil {
			return err
		}
		defer conn.Close()
		answerer, database = assistant, conn
	} else {
		logger.Info("DATABASE_URL not set; /api/query disabled")
	}

	srv, err := server.New(server.Config{
		Server:      cfg.Server,
		Temperature: cfg.LLM.Temperature,
		Library:     lib,
		Client:      client,
		Renderer:    renderer,
		Answerer:    answerer,
		Database:    database,
		RateLimit:   ratelimit.FromSettings(cfg.RateLimit),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("serving resume",
		zap.String("addr", cfg.Addr()),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", client.Model()),
		zap.Int("variants", len(lib.Variants())))
	return srv.Start(ctx)
}

// newAssistant connects to the database and builds the retrieval assistant.
// The caller closes the returned database.
func newAssistant(ctx context.Context, client llm.Client) (*retrieval.Assistant, *db.DB, error) {
	embedder, err := newEmbedder()
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	n, err := database.CountChunks(ctx)
	switch {
	case err != nil:
		logger.Warn("could not count stored chunks; has ingest run?", zap.Error(err))
	case n == 0:
		logger.Warn("no chunks stored; /api/query will find no context until ingest runs")
	default:
		logger.Info("retrieval corpus ready", zap.Int64("chunks", n))
	}
	return retrieval.NewAssistant(embedder, database, client, logger), database, nil
}
