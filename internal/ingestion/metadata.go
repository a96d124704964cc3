package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// chunkMetadata builds the metadata_json stored with every chunk of a document: the
// frontmatter as written, plus the content hash and ingestion time.
func chunkMetadata(doc *Document, now time.Time) map[string]any {
	out := make(map[string]any, len(doc.Frontmatter.Raw)+3)
	for k, v := range doc.Frontmatter.Raw {
		out[k] = v
	}
	out["content_hash"] = computeHash(doc.Content)
	out["ingested_at"] = now.UTC().Format(time.RFC3339)
	out["list_items"] = CountBullets(doc.Content)
	return out
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
