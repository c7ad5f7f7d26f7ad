package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Chocano14/docuemnto-ia/internal/core/domain"
)

// ChunkRepository is the system of record for chunks. Vectors live in the
// vector index; this table keeps content and metadata for every chunk plus
// an embedded flag so the retrieval fallback can find chunks that never
// made it into the index.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) SaveBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO document_chunks (id, content, metadata, embedded, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE
SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedded = EXCLUDED.embedded
`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		embedded := len(chunk.Embedding) > 0
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Content, metadataJSON, embedded, chunk.Metadata.CreatedAt); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

// ListUnembedded returns the most recent chunks that were persisted without
// a vector. A nil or empty documentIDs slice means no document filter.
func (r *ChunkRepository) ListUnembedded(ctx context.Context, documentIDs []string, limit int) ([]domain.Chunk, error) {
	query := `
SELECT id, content, metadata
FROM document_chunks
WHERE embedded = FALSE
`
	args := make([]any, 0, len(documentIDs)+1)
	if len(documentIDs) > 0 {
		placeholders := make([]string, 0, len(documentIDs))
		for _, id := range documentIDs {
			args = append(args, id)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query += fmt.Sprintf("AND metadata->>'document_id' IN (%s)\n", strings.Join(placeholders, ","))
	}
	args = append(args, limit)
	query += fmt.Sprintf("ORDER BY created_at DESC\nLIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unembedded chunks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Chunk, 0)
	for rows.Next() {
		var chunk domain.Chunk
		var metadataRaw []byte
		if err := rows.Scan(&chunk.ID, &chunk.Content, &metadataRaw); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal(metadataRaw, &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
		}
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM document_chunks
WHERE metadata->>'document_id' = $1
`, documentID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
