// Package retrieval answers questions about the resume from the ingested document corpus:
// embed the question, find the nearest chunks, and ask the model to answer from them.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-site/internal/db"
	"github.com/jonathan/resume-site/internal/llm"
	"github.com/jonathan/resume-site/internal/prompts"
	"github.com/jonathan/resume-site/internal/types"
	"go.uber.org/zap"
)

// Defaults for Answer
const (
	DefaultTopK       = 5
	MaxTopK           = 20
	AnswerMaxTokens   = 500
	AnswerTemperature = llm.DefaultTemperature
)

// ErrNoContext is returned when the corpus holds nothing to answer from
var ErrNoContext = errors.New("no relevant context found")

// Searcher finds the chunks nearest to an embedding
type Searcher interface {
	SearchChunks(ctx context.Context, embedding []float32, model string, topK int) ([]db.SearchResult, error)
}

// Answer is a generated answer with the files it was grounded on
type Answer struct {
	Query   string
	Text    string
	Sources []string
	Chunks  []db.SearchResult
}

// Assistant answers questions with retrieval-augmented generation
type Assistant struct {
	embedder llm.Embedder
	store    Searcher
	client   llm.Client
	logger   *zap.Logger
}

// NewAssistant creates an assistant. A nil logger disables logging.
func NewAssistant(embedder llm.Embedder, store Searcher, client llm.Client, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		embedder: embedder,
		store:    store,
		client:   client,
		logger:   logger,
	}
}

// Answer embeds the query, retrieves up to topK chunks and generates an answer from them.
// topK outside 1..MaxTopK means DefaultTopK.
func (a *Assistant) Answer(ctx context.Context, query string, topK int) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if topK < 1 || topK > MaxTopK {
		topK = DefaultTopK
	}

	vectors, err := a.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	chunks, err := a.store.SearchChunks(ctx, vectors[0], a.embedder.Model(), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoContext
	}

	a.logger.Debug("retrieved context",
		zap.Int("chunks", len(chunks)),
		zap.Float64("nearest_distance", chunks[0].Distance))

	user := prompts.Format(prompts.MustGet(prompts.RAGFile, "user"), map[string]string{
		"Context": BuildContext(chunks),
		"Query":   query,
	})
	text, err := llm.Complete(ctx, a.client, llm.ChatRequest{
		System:      prompts.MustGet(prompts.RAGFile, "system"),
		Messages:    []types.ChatMessage{{Role: types.RoleUser, Content: user}},
		Temperature: AnswerTemperature,
		MaxTokens:   AnswerMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Answer{
		Query:   query,
		Text:    strings.TrimSpace(text),
		Sources: Sources(chunks),
		Chunks:  chunks,
	}, nil
}

// BuildContext numbers the chunks from 1 and joins them with blank lines
func BuildContext(chunks []db.SearchResult) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Sources returns the distinct source files of the chunks, sorted
func Sources(chunks []db.SearchResult) []string {
	seen := make(map[string]bool, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if !seen[c.SourceFile] {
			seen[c.SourceFile] = true
			out = append(out, c.SourceFile)
		}
	}
	sort.Strings(out)
	return out
}
