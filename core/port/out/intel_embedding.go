// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// =============================================================================
// Embeddings
// =============================================================================

// EmbeddingProvider turns text into fixed-dimension vectors.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingRepository stores embedding records. Lookups that find nothing
// return nil or an empty slice without an error.
type EmbeddingRepository interface {
	Save(ctx context.Context, record *domain.EmbeddingRecord) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmbeddingRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, contentType string) ([]*domain.EmbeddingRecord, error)
	Update(ctx context.Context, record *domain.EmbeddingRecord) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// VectorIndex is implemented by repositories that can pre-select nearest
// candidates natively (pgvector). Callers still score and rank the result.
type VectorIndex interface {
	NearestCandidates(ctx context.Context, ownerID uuid.UUID, contentType string, query []float32, k int) ([]*domain.EmbeddingRecord, error)
}
