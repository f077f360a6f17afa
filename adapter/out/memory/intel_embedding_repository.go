// Package memory provides process-local implementations of the repository ports.
package memory

import (
	"context"
	"sync"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// EmbeddingRepository keeps embedding records in memory.
type EmbeddingRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.EmbeddingRecord
	order   []uuid.UUID
}

func NewEmbeddingRepository() *EmbeddingRepository {
	return &EmbeddingRepository{records: make(map[uuid.UUID]domain.EmbeddingRecord)}
}

func (r *EmbeddingRepository) Save(ctx context.Context, record *domain.EmbeddingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		r.order = append(r.order, record.ID)
	}
	r.records[record.ID] = cloneEmbedding(*record)
	return nil
}

func (r *EmbeddingRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmbeddingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, nil
	}
	rec = cloneEmbedding(rec)
	return &rec, nil
}

func (r *EmbeddingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, contentType string) ([]*domain.EmbeddingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.EmbeddingRecord, 0)
	for _, id := range r.order {
		rec, ok := r.records[id]
		if !ok || rec.OwnerID != ownerID {
			continue
		}
		if contentType != "" && rec.ContentType != contentType {
			continue
		}
		rec = cloneEmbedding(rec)
		out = append(out, &rec)
	}
	return out, nil
}

// Update replaces content and metadata. The stored vector is left untouched.
func (r *EmbeddingRepository) Update(ctx context.Context, record *domain.EmbeddingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[record.ID]
	if !ok || existing.OwnerID != record.OwnerID {
		return nil
	}
	existing.Content = record.Content
	existing.Metadata = cloneMetadata(record.Metadata)
	existing.UpdatedAt = record.UpdatedAt
	r.records[record.ID] = existing
	return nil
}

func (r *EmbeddingRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok && rec.OwnerID == ownerID {
		delete(r.records, id)
	}
	return nil
}

// cloneEmbedding detaches the vector and metadata from the caller's copy.
func cloneEmbedding(rec domain.EmbeddingRecord) domain.EmbeddingRecord {
	rec.Vector = append([]float32(nil), rec.Vector...)
	rec.Metadata = cloneMetadata(rec.Metadata)
	return rec
}

func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
