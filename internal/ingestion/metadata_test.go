package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChunkMetadata(t *testing.T) {
	doc := &Document{
		Frontmatter: Frontmatter{
			Title: "Meta",
			Raw:   map[string]any{"title": "Meta", "tags": []any{"ml"}},
		},
		Content: "- one\n- two",
	}
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))

	meta := chunkMetadata(doc, now)

	assert.Equal(t, "Meta", meta["title"])
	assert.Equal(t, []any{"ml"}, meta["tags"])
	assert.Equal(t, computeHash("- one\n- two"), meta["content_hash"])
	assert.Equal(t, "2025-03-01T14:30:00Z", meta["ingested_at"])
	assert.Equal(t, 2, meta["list_items"])

	// the frontmatter map is not modified
	assert.Len(t, doc.Frontmatter.Raw, 2)
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", computeHash(""))
	assert.Len(t, computeHash("content"), 64)
	assert.NotEqual(t, computeHash("a"), computeHash("b"))
}
