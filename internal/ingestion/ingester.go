package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jonathan/resume-site/internal/db"
	"github.com/jonathan/resume-site/internal/llm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for the Ingester
const (
	DefaultBatchSize   = 20
	DefaultConcurrency = 4
)

// Store persists the chunks of one source file, replacing what it held before
type Store interface {
	ReplaceSource(ctx context.Context, sourceFile, model string, chunks []db.ChunkInput, embeddings [][]float32) error
	DeleteChunksBySource(ctx context.Context, sourceFile string) (int64, error)
}

// Summary reports one ingestion run
type Summary struct {
	Files     int
	Processed int
	Skipped   int
	Chunks    int
	Failed    []string
}

// Ingester embeds content documents and stores them for retrieval
type Ingester struct {
	embedder    llm.Embedder
	store       Store
	batchSize   int
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures an Ingester
type Option func(*Ingester)

// WithBatchSize sets how many chunks go into one embedding request
func WithBatchSize(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithConcurrency sets how many embedding requests run at once
func WithConcurrency(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(i *Ingester) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewIngester creates an ingester
func NewIngester(embedder llm.Embedder, store Store, opts ...Option) *Ingester {
	i := &Ingester{
		embedder:    embedder,
		store:       store,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IngestDir ingests every markdown file below root. A file that fails is logged and counted
// in Summary.Failed; the run goes on with the next file. Source files are stored relative to
// root with forward slashes.
func (i *Ingester) IngestDir(ctx context.Context, root string) (*Summary, error) {
	files, err := FindMarkdownFiles(root)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		source := filepath.ToSlash(rel)

		n, err := i.IngestFile(ctx, path, source)
		switch {
		case errors.Is(err, ErrEmptyContent):
			// an emptied document must not keep answering from its old chunks
			removed, derr := i.store.DeleteChunksBySource(ctx, source)
			if derr != nil {
				i.logger.Warn("failed to drop chunks of empty document", zap.String("source", source), zap.Error(derr))
			}
			i.logger.Info("skipped empty document", zap.String("source", source), zap.Int64("removed_chunks", removed))
			summary.Skipped++
		case err != nil:
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			i.logger.Warn("failed to ingest document", zap.String("source", source), zap.Error(err))
			summary.Failed = append(summary.Failed, source)
		default:
			i.logger.Info("ingested document", zap.String("source", source), zap.Int("chunks", n))
			summary.Processed++
			summary.Chunks += n
		}
	}
	return summary, nil
}

// IngestFile parses, chunks, embeds and stores one file under the given source name.
// It returns the number of chunks stored.
func (i *Ingester) IngestFile(ctx context.Context, path, source string) (int, error) {
	doc, err := ReadMarkdownFile(path)
	if err != nil {
		return 0, err
	}

	texts := doc.Chunks()
	if len(texts) == 0 {
		return 0, ErrEmptyContent
	}

	embeddings, err := i.EmbedAll(ctx, texts)
	if err != nil {
		return 0, err
	}

	metadata := chunkMetadata(doc, i.now())
	chunks := make([]db.ChunkInput, len(texts))
	for idx, text := range texts {
		chunks[idx] = db.ChunkInput{
			Content:       text,
			SourceFile:    source,
			Category:      doc.Frontmatter.Category,
			DocumentTitle: doc.Frontmatter.Title,
			ChunkIndex:    idx,
			Metadata:      metadata,
		}
	}

	if err := i.store.ReplaceSource(ctx, source, i.embedder.Model(), chunks, embeddings); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// EmbedAll embeds texts in batches, running up to the configured number of requests at once.
// The result is in input order.
func (i *Ingester) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for start := 0; start < len(texts); start += i.batchSize {
		end := min(start+i.batchSize, len(texts))
		g.Go(func() error {
			vectors, err := i.embedder.Embed(ctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embedding batch %d-%d returned %d vectors", start, end-1, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
