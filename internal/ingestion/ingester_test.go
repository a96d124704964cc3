package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/resume-site/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	batches  [][]string
	failOn   string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.batches = append(f.batches, texts)
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failOn != "" && strings.Contains(text, f.failOn) {
			return nil, errors.New("embedding refused")
		}
		// first element encodes the text length so order can be checked
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedding" }

type fakeStore struct {
	mu      sync.Mutex
	sources map[string][]db.ChunkInput
	vectors map[string][][]float32
	model   string
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{sources: map[string][]db.ChunkInput{}, vectors: map[string][][]float32{}}
}

func (s *fakeStore) ReplaceSource(_ context.Context, source, model string, chunks []db.ChunkInput, embeddings [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source] = chunks
	s.vectors[source] = embeddings
	s.model = model
	return nil
}

func (s *fakeStore) DeleteChunksBySource(_ context.Context, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.sources[source]))
	delete(s.sources, source)
	delete(s.vectors, source)
	s.deleted = append(s.deleted, source)
	return n, nil
}

func TestEmbedAll_BatchesInOrder(t *testing.T) {
	embedder := &fakeEmbedder{}
	ing := NewIngester(embedder, newFakeStore(), WithBatchSize(2), WithConcurrency(3))

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := ing.EmbedAll(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
	assert.Len(t, embedder.batches, 3)
	assert.LessOrEqual(t, embedder.maxSeen.Load(), int32(3))
}

func TestEmbedAll_ConcurrencyLimit(t *testing.T) {
	embedder := &fakeEmbedder{}
	ing := NewIngester(embedder, newFakeStore(), WithBatchSize(1), WithConcurrency(2))

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = "x"
	}
	_, err := ing.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	assert.LessOrEqual(t, embedder.maxSeen.Load(), int32(2))
}

func TestEmbedAll_Error(t *testing.T) {
	ing := NewIngester(&fakeEmbedder{failOn: "bad"}, newFakeStore(), WithBatchSize(1))

	_, err := ing.EmbedAll(context.Background(), []string{"good", "bad"})
	assert.ErrorContains(t, err, "embedding refused")
}

func TestIngestDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "experience/meta.md", "---\ntitle: Meta\ncategory: experience\n---\nBuilt models.\n\nRan experiments.\n")
	writeFile(t, root, "projects/budget-buddy.md", "---\ntitle: Budget Buddy\nchunk_strategy: whole\ncontext_prefix: \"Budget Buddy: \"\n---\nA finance app.\n\nWith AI features.\n")
	writeFile(t, root, "empty.md", "---\ntitle: Empty\n---\n")
	writeFile(t, root, "broken.md", "---\ntitle: [\n---\nbody")

	core, logs := observer.New(zap.InfoLevel)
	store := newFakeStore()
	ing := NewIngester(&fakeEmbedder{}, store, WithLogger(zap.New(core)))

	summary, err := ing.IngestDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Files)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, []string{"broken.md"}, summary.Failed)

	meta := store.sources["experience/meta.md"]
	require.Len(t, meta, 2)
	assert.Equal(t, "Built models.", meta[0].Content)
	assert.Equal(t, 1, meta[1].ChunkIndex)
	assert.Equal(t, "experience", meta[1].Category)
	assert.Equal(t, "Meta", meta[1].DocumentTitle)
	assert.NotEmpty(t, meta[0].Metadata["content_hash"])
	assert.Equal(t, "fake-embedding", store.model)
	assert.Len(t, store.vectors["experience/meta.md"], 2)

	bb := store.sources["projects/budget-buddy.md"]
	require.Len(t, bb, 1)
	assert.Equal(t, "Budget Buddy: A finance app.\n\nWith AI features.", bb[0].Content)

	assert.Equal(t, 1, logs.FilterMessage("failed to ingest document").Len())
	assert.Equal(t, 1, logs.FilterMessage("skipped empty document").Len())
	assert.Equal(t, []string{"empty.md"}, store.deleted)
}

func TestIngestDir_EmptiedDocumentDropsOldChunks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.md", "First.\n\nSecond.\n")

	store := newFakeStore()
	ing := NewIngester(&fakeEmbedder{}, store)

	_, err := ing.IngestDir(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, store.sources["notes.md"], 2)

	writeFile(t, root, "notes.md", "---\ntitle: Notes\n---\n")
	summary, err := ing.IngestDir(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.NotContains(t, store.sources, "notes.md")
}

func TestIngestDir_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "A.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIngester(&fakeEmbedder{}, newFakeStore()).IngestDir(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestDir_MissingRoot(t *testing.T) {
	_, err := NewIngester(&fakeEmbedder{}, newFakeStore()).IngestDir(context.Background(), "/nonexistent/content")
	assert.Error(t, err)
}

func TestNewIngester_IgnoresInvalidOptions(t *testing.T) {
	ing := NewIngester(&fakeEmbedder{}, newFakeStore(), WithBatchSize(0), WithConcurrency(-1), WithLogger(nil))
	assert.Equal(t, DefaultBatchSize, ing.batchSize)
	assert.Equal(t, DefaultConcurrency, ing.concurrency)
	assert.NotNil(t, ing.logger)
}
