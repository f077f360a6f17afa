// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// EmbeddingStore keeps owner-scoped embeddings and answers similarity queries.
type EmbeddingStore interface {
	Store(ctx context.Context, ownerID uuid.UUID, contentType, text string, vector []float32, metadata map[string]any) (*domain.EmbeddingRecord, error)
	StoreText(ctx context.Context, ownerID uuid.UUID, contentType, text string, metadata map[string]any) (*domain.EmbeddingRecord, error)
	FindSimilar(ctx context.Context, query []float32, ownerID uuid.UUID, limit int, minSimilarity float64, contentType string) ([]domain.ScoredRecord, error)
}

// ClassifyInput is one message to classify.
type ClassifyInput struct {
	OwnerID uuid.UUID
	EmailID string
	Subject string
	Body    string
	Sender  string
}

// ClassificationService classifies messages. Classify always returns a result.
type ClassificationService interface {
	Classify(ctx context.Context, input ClassifyInput) domain.ClassificationResult
}
