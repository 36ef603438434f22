package embeddings

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// PGChunkStore implements ChunkStore on Postgres with the pgvector
// extension. Similarity is computed as 1 - cosine distance.
type PGChunkStore struct {
	DB *sql.DB
}

// Insert persists one chunk.
func (s *PGChunkStore) Insert(ctx context.Context, chunk Chunk) error {
	const query = `
INSERT INTO document_embeddings (
    id,
    document_id,
    company_id,
    content,
    embedding,
    chunk_index,
    metadata,
    created_at
) VALUES ($1, $2, $3, $4, $5::vector, $6, $7, $8)`

	metadata, err := marshalMetadata(chunk.Metadata)
	if err != nil {
		return err
	}
	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.DB.ExecContext(
		ctx,
		query,
		chunk.ID,
		chunk.DocumentID,
		chunk.CompanyID,
		chunk.Content,
		vectorLiteral(chunk.Embedding),
		chunk.ChunkIndex,
		metadata,
		createdAt,
	)
	return err
}

// SearchSimilar runs a tenant-scoped nearest-neighbour query.
func (s *PGChunkStore) SearchSimilar(ctx context.Context, companyID string, vector []float32, floor float64, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
SELECT id, document_id, company_id, content, chunk_index, metadata,
       1 - (embedding <=> $1::vector) AS similarity
FROM document_embeddings
WHERE company_id = $2
  AND 1 - (embedding <=> $1::vector) >= $3
ORDER BY embedding <=> $1::vector
LIMIT $4`

	rows, err := s.DB.QueryContext(ctx, query, vectorLiteral(vector), companyID, floor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var res SearchResult
		var metadata []byte
		err := rows.Scan(
			&res.Chunk.ID,
			&res.Chunk.DocumentID,
			&res.Chunk.CompanyID,
			&res.Chunk.Content,
			&res.Chunk.ChunkIndex,
			&metadata,
			&res.Similarity,
		)
		if err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &res.Chunk.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// DeleteByDocument removes all chunks for a document within a tenant.
func (s *PGChunkStore) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	const query = `
DELETE FROM document_embeddings
WHERE company_id = $1 AND document_id = $2`
	_, err := s.DB.ExecContext(ctx, query, companyID, documentID)
	return err
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(metadata)
}

// vectorLiteral renders a float slice in pgvector's input syntax.
func vectorLiteral(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

var _ ChunkStore = (*PGChunkStore)(nil)
