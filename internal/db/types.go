package db

import "time"

// Chunk is one stored piece of a source document
type Chunk struct {
	ID            int64          `json:"chunk_id"`
	Content       string         `json:"content"`
	SourceFile    string         `json:"source_file"`
	Category      *string        `json:"category,omitempty"`
	DocumentTitle *string        `json:"document_title,omitempty"`
	ChunkIndex    int            `json:"chunk_index"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ChunkInput is the data needed to store a chunk
type ChunkInput struct {
	Content       string
	SourceFile    string
	Category      string
	DocumentTitle string
	ChunkIndex    int
	Metadata      map[string]any
}

// SearchResult is a chunk matched by vector search, nearest first
type SearchResult struct {
	ChunkID    int64   `json:"chunk_id"`
	Content    string  `json:"content"`
	SourceFile string  `json:"source_file"`
	Category   *string `json:"category,omitempty"`
	Distance   float64 `json:"distance"`
}
