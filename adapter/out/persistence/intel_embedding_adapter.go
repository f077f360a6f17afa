// Package persistence provides Postgres adapters implementing outbound ports.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"intel_server/core/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =============================================================================
// Embedding Adapter (pgvector)
// =============================================================================

// EmbeddingAdapter implements out.EmbeddingRepository and out.VectorIndex on pgvector.
type EmbeddingAdapter struct {
	db *pgxpool.Pool
}

func NewEmbeddingAdapter(db *pgxpool.Pool) *EmbeddingAdapter {
	return &EmbeddingAdapter{db: db}
}

const embeddingColumns = `id, owner_id, content_type, content, embedding::text, metadata, created_at, updated_at`

func scanEmbedding(row pgx.Row) (*domain.EmbeddingRecord, error) {
	var (
		rec      domain.EmbeddingRecord
		vector   string
		metadata []byte
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.ContentType, &rec.Content, &vector, &metadata, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	v, err := parsePgVector(vector)
	if err != nil {
		return nil, err
	}
	rec.Vector = v
	if rec.Metadata, err = decodeJSONMap(metadata); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (a *EmbeddingAdapter) Save(ctx context.Context, rec *domain.EmbeddingRecord) error {
	metadata, err := encodeJSONMap(rec.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO embeddings (id, owner_id, content_type, content, embedding, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::vector, $6::jsonb, $7, $8)`

	if _, err := a.db.Exec(ctx, query,
		rec.ID, rec.OwnerID, rec.ContentType, rec.Content, pgVector(rec.Vector), metadata, rec.CreatedAt, rec.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

func (a *EmbeddingAdapter) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmbeddingRecord, error) {
	query := `SELECT ` + embeddingColumns + ` FROM embeddings WHERE id = $1 AND owner_id = $2`

	rec, err := scanEmbedding(a.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return rec, nil
}

// ListByOwner returns the owner's records, optionally limited to one content type.
func (a *EmbeddingAdapter) ListByOwner(ctx context.Context, ownerID uuid.UUID, contentType string) ([]*domain.EmbeddingRecord, error) {
	query := `SELECT ` + embeddingColumns + ` FROM embeddings
		WHERE owner_id = $1 AND ($2 = '' OR content_type = $2)
		ORDER BY created_at DESC`

	return a.query(ctx, query, ownerID, contentType)
}

// Equal distances break toward the newest record, as the in-process scan does.
const nearestCandidatesQuery = `SELECT ` + embeddingColumns + ` FROM embeddings
		WHERE owner_id = $1 AND ($2 = '' OR content_type = $2)
		ORDER BY embedding <=> $3::vector, created_at DESC
		LIMIT $4`

// NearestCandidates pre-selects the k nearest records by cosine distance.
func (a *EmbeddingAdapter) NearestCandidates(ctx context.Context, ownerID uuid.UUID, contentType string, query []float32, k int) ([]*domain.EmbeddingRecord, error) {
	return a.query(ctx, nearestCandidatesQuery, ownerID, contentType, pgVector(query), k)
}

func (a *EmbeddingAdapter) query(ctx context.Context, sql string, args ...any) ([]*domain.EmbeddingRecord, error) {
	rows, err := a.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.EmbeddingRecord, 0)
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embeddings: %w", err)
	}
	return records, nil
}

// Update rewrites content and metadata. The vector is immutable.
func (a *EmbeddingAdapter) Update(ctx context.Context, rec *domain.EmbeddingRecord) error {
	metadata, err := encodeJSONMap(rec.Metadata)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	query := `UPDATE embeddings SET content = $1, metadata = $2::jsonb, updated_at = $3 WHERE id = $4 AND owner_id = $5`

	tag, err := a.db.Exec(ctx, query, rec.Content, metadata, rec.UpdatedAt, rec.ID, rec.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *EmbeddingAdapter) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM embeddings WHERE id = $1 AND owner_id = $2`

	if _, err := a.db.Exec(ctx, query, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

// pgVector converts a float32 slice to pgvector text format.
func pgVector(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}

	buf := make([]byte, 0, len(v)*12+2)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, float64(f), 'g', -1, 32)
	}
	buf = append(buf, ']')
	return string(buf)
}

// parsePgVector reads pgvector text format back into a float32 slice.
func parsePgVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
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

// encodeJSONMap renders m as JSON text; text parameters cast cleanly to jsonb.
func encodeJSONMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return string(data), nil
}

func decodeJSONMap(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return m, nil
}
