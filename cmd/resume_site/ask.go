package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/resume-site/internal/retrieval"
	"github.com/jonathan/resume-site/internal/server"
	"github.com/spf13/cobra"
)

var (
	askTopK int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the ingested documents",
	Long:  "Embed the question, retrieve the nearest chunks and answer from them. Requires DATABASE_URL and OPENAI_API_KEY.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", retrieval.DefaultTopK, "Number of chunks to retrieve (1-20)")
	rootCmd.AddCommand(askCmd)
}

// openAnswerer connects the chat client, embedder and database behind ask.
// The returned func releases all three.
var openAnswerer = func(ctx context.Context) (server.Answerer, func(), error) {
	client, err := newChatClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	assistant, database, err := newAssistant(ctx, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return assistant, func() {
		database.Close()
		client.Close()
	}, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for ask")
	}
	if askTopK < 1 || askTopK > retrieval.MaxTopK {
		return fmt.Errorf("--top-k must be between 1 and %d", retrieval.MaxTopK)
	}
	ctx := cmd.Context()

	answerer, release, err := openAnswerer(ctx)
	if err != nil {
		return err
	}
	defer release()

	answer, err := answerer.Answer(ctx, strings.Join(args, " "), askTopK)
	if errors.Is(err, retrieval.ErrNoContext) {
		return fmt.Errorf("nothing in the ingested documents matches that question")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\nSources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}
