package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// EmbeddingDimensions is the width of the embedding column
const EmbeddingDimensions = 1536

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertChunk(ctx context.Context, q querier, in *ChunkInput) (int64, error) {
	var metadata []byte
	if len(in.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(in.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal chunk metadata: %w", err)
		}
	}

	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO document_chunks (content, source_file, category, document_title, chunk_index, metadata_json)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING chunk_id`,
		in.Content, in.SourceFile, nullIfEmpty(in.Category), nullIfEmpty(in.DocumentTitle), in.ChunkIndex, metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunk: %w", err)
	}
	return id, nil
}

// ReplaceSource stores the chunks of one source file with their embeddings in a single
// transaction, deleting whatever the file had before. embeddings[i] belongs to chunks[i].
func (db *DB) ReplaceSource(ctx context.Context, sourceFile, model string, chunks []ChunkInput, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE source_file = $1`, sourceFile); err != nil {
		return fmt.Errorf("failed to delete chunks of %s: %w", sourceFile, err)
	}

	for i := range chunks {
		if len(embeddings[i]) != EmbeddingDimensions {
			return fmt.Errorf("chunk %d: embedding has %d dimensions, want %d", i, len(embeddings[i]), EmbeddingDimensions)
		}
		id, err := insertChunk(ctx, tx, &chunks[i])
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO chunk_embeddings (chunk_id, embedding, embedding_model) VALUES ($1, $2::vector, $3)`,
			id, FormatVector(embeddings[i]), model,
		); err != nil {
			return fmt.Errorf("failed to save embedding for chunk %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", sourceFile, err)
	}
	return nil
}

// DeleteChunksBySource removes every chunk of a source file, embeddings included
func (db *DB) DeleteChunksBySource(ctx context.Context, sourceFile string) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM document_chunks WHERE source_file = $1`, sourceFile)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks of %s: %w", sourceFile, err)
	}
	return tag.RowsAffected(), nil
}

// ListChunksBySource returns the chunks of a source file in chunk order
func (db *DB) ListChunksBySource(ctx context.Context, sourceFile string) ([]Chunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT chunk_id, content, source_file, category, document_title, chunk_index, metadata_json, created_at
		 FROM document_chunks WHERE source_file = $1 ORDER BY chunk_index`,
		sourceFile,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks of %s: %w", sourceFile, err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var metadata []byte
		if err := rows.Scan(&c.ID, &c.Content, &c.SourceFile, &c.Category, &c.DocumentTitle,
			&c.ChunkIndex, &metadata, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SearchChunks returns the topK chunks whose embedding for model is nearest to embedding by
// cosine distance, the metric the ivfflat index is built for.
func (db *DB) SearchChunks(ctx context.Context, embedding []float32, model string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	rows, err := db.pool.Query(ctx,
		`SELECT c.chunk_id, c.content, c.source_file, c.category, e.embedding <=> $1::vector AS distance
		 FROM chunk_embeddings e
		 JOIN document_chunks c ON e.chunk_id = c.chunk_id
		 WHERE e.embedding_model = $2
		 ORDER BY distance
		 LIMIT $3`,
		FormatVector(embedding), model, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SearchResult, error) {
		var r SearchResult
		err := row.Scan(&r.ChunkID, &r.Content, &r.SourceFile, &r.Category, &r.Distance)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan search results: %w", err)
	}
	return results, nil
}

// CountChunks returns the number of stored chunks
func (db *DB) CountChunks(ctx context.Context) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// FormatVector renders an embedding as a pgvector text literal, e.g. "[0.1,0.2]"
func FormatVector(v []float32) string {
	var sb strings.Builder
	sb.Grow(len(v) * 10)
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseVector parses a pgvector text literal
func ParseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("invalid vector literal %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
