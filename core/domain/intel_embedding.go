package domain

import (
	"time"

	"github.com/google/uuid"
)

// Content types stored alongside embeddings.
const (
	ContentTypeEmail = "email"
	ContentTypeDraft = "draft"
)

// EmbeddingRecord is a stored text with its vector, scoped to an owner.
// Vector is written once at creation and never reassigned.
type EmbeddingRecord struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	ContentType string         `json:"content_type"`
	Content     string         `json:"content"`
	Vector      []float32      `json:"vector"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewEmbeddingRecord creates a record with a copy of vector.
func NewEmbeddingRecord(owner uuid.UUID, contentType, content string, vector []float32, metadata map[string]any) *EmbeddingRecord {
	now := time.Now().UTC()
	v := make([]float32, len(vector))
	copy(v, vector)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &EmbeddingRecord{
		ID:          uuid.New(),
		OwnerID:     owner,
		ContentType: contentType,
		Content:     content,
		Vector:      v,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ReplaceMetadata swaps the metadata map and refreshes UpdatedAt.
func (r *EmbeddingRecord) ReplaceMetadata(metadata map[string]any) {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	r.Metadata = metadata
	r.UpdatedAt = time.Now().UTC()
}

// ReplaceContent swaps the source text and refreshes UpdatedAt. The vector is kept.
func (r *EmbeddingRecord) ReplaceContent(content string) {
	r.Content = content
	r.UpdatedAt = time.Now().UTC()
}

// ScoredRecord pairs a record with its similarity to a query.
type ScoredRecord struct {
	Record     *EmbeddingRecord `json:"record"`
	Similarity float64          `json:"similarity"`
}
