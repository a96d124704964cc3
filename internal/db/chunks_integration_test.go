//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "test-embedding-model"

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// unitVector returns a vector that is 1 at position i and 0 elsewhere
func unitVector(i int) []float32 {
	v := make([]float32, EmbeddingDimensions)
	v[i] = 1
	return v
}

func testSource() string {
	return "test/" + uuid.New().String() + ".md"
}

func TestIntegration_MigrateIsIdempotent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	require.NoError(t, db.Migrate(context.Background()))
}

func TestIntegration_ReplaceSourceAndSearch(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	source := testSource()
	defer db.DeleteChunksBySource(ctx, source) //nolint:errcheck

	chunks := []ChunkInput{
		{Content: "Built BERT models", SourceFile: source, Category: "experience", DocumentTitle: "Meta", ChunkIndex: 0},
		{Content: "Ran onboarding experiments", SourceFile: source, Category: "experience", DocumentTitle: "Meta", ChunkIndex: 1,
			Metadata: map[string]any{"chunk_strategy": "paragraph"}},
	}
	require.NoError(t, db.ReplaceSource(ctx, source, testModel, chunks, [][]float32{unitVector(0), unitVector(1)}))

	stored, err := db.ListChunksBySource(ctx, source)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Built BERT models", stored[0].Content)
	require.NotNil(t, stored[1].Category)
	assert.Equal(t, "experience", *stored[1].Category)
	assert.Equal(t, "paragraph", stored[1].Metadata["chunk_strategy"])

	results, err := db.SearchChunks(ctx, unitVector(1), testModel, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ran onboarding experiments", results[0].Content)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)

	// replacing drops the previous chunks
	require.NoError(t, db.ReplaceSource(ctx, source, testModel,
		[]ChunkInput{{Content: "Only chunk", SourceFile: source}}, [][]float32{unitVector(2)}))
	stored, err = db.ListChunksBySource(ctx, source)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Only chunk", stored[0].Content)
}

func TestIntegration_DeleteAndCount(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	before, err := db.CountChunks(ctx)
	require.NoError(t, err)

	source := testSource()
	chunks := []ChunkInput{
		{Content: "Budget Buddy", SourceFile: source, ChunkIndex: 0},
		{Content: "Prompt caching", SourceFile: source, ChunkIndex: 1},
	}
	require.NoError(t, db.ReplaceSource(ctx, source, testModel, chunks, [][]float32{unitVector(3), unitVector(4)}))

	after, err := db.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)

	// a wrong-sized vector rolls back the whole source
	err = db.ReplaceSource(ctx, source, testModel, chunks[:1], [][]float32{{1, 2}})
	require.Error(t, err)
	stored, err := db.ListChunksBySource(ctx, source)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	n, err := db.DeleteChunksBySource(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// embeddings go with their chunks
	results, err := db.SearchChunks(ctx, unitVector(3), testModel, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, source, r.SourceFile)
	}
}
