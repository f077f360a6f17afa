// Package embedding stores owner-scoped embeddings and ranks them by cosine similarity.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"intel_server/core/domain"
	"intel_server/core/port/out"
	"intel_server/core/service/common"

	"github.com/google/uuid"
)

// candidateFactor widens the native index pre-selection so exact re-scoring
// and the threshold still see every plausible neighbour.
const candidateFactor = 4

// Store implements in.EmbeddingStore.
type Store struct {
	repo     out.EmbeddingRepository
	provider out.EmbeddingProvider
}

func NewStore(repo out.EmbeddingRepository, provider out.EmbeddingProvider) *Store {
	return &Store{repo: repo, provider: provider}
}

// Store appends a record. Identical texts are stored again.
func (s *Store) Store(ctx context.Context, ownerID uuid.UUID, contentType, text string, vector []float32, metadata map[string]any) (*domain.EmbeddingRecord, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", common.ErrInvalidInput)
	}
	record := domain.NewEmbeddingRecord(ownerID, contentType, text, vector, metadata)
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save embedding: %w", err)
	}
	return record, nil
}

// StoreText embeds text with the provider, then stores it.
func (s *Store) StoreText(ctx context.Context, ownerID uuid.UUID, contentType, text string, metadata map[string]any) (*domain.EmbeddingRecord, error) {
	vector, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", common.ErrProviderError, err)
	}
	return s.Store(ctx, ownerID, contentType, text, vector, metadata)
}

// FindSimilar returns the owner's records ranked by similarity to query,
// most similar first, dropping any below minSimilarity. Equal similarities
// put the most recently created record first. An empty contentType matches all.
func (s *Store) FindSimilar(ctx context.Context, query []float32, ownerID uuid.UUID, limit int, minSimilarity float64, contentType string) ([]domain.ScoredRecord, error) {
	if limit <= 0 || len(query) == 0 {
		return []domain.ScoredRecord{}, nil
	}

	var (
		records []*domain.EmbeddingRecord
		err     error
	)
	if idx, ok := s.repo.(out.VectorIndex); ok {
		records, err = idx.NearestCandidates(ctx, ownerID, contentType, query, limit*candidateFactor)
	} else {
		records, err = s.repo.ListByOwner(ctx, ownerID, contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	return Rank(records, query, ownerID, limit, minSimilarity, contentType), nil
}

// Rank scores records against query and applies the owner, content type,
// threshold, ordering and limit rules of FindSimilar.
func Rank(records []*domain.EmbeddingRecord, query []float32, ownerID uuid.UUID, limit int, minSimilarity float64, contentType string) []domain.ScoredRecord {
	scored := make([]domain.ScoredRecord, 0, len(records))
	for _, r := range records {
		if r == nil || r.OwnerID != ownerID {
			continue
		}
		if contentType != "" && r.ContentType != contentType {
			continue
		}
		sim := CosineSimilarity(query, r.Vector)
		if sim < minSimilarity {
			continue
		}
		scored = append(scored, domain.ScoredRecord{Record: r, Similarity: sim})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Record.CreatedAt.After(scored[j].Record.CreatedAt)
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when the lengths differ
// or either vector has zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / math.Sqrt(normA*normB)
	return math.Max(-1, math.Min(1, sim))
}

// Subtract returns a-b element-wise, or nil when the lengths differ.
func Subtract(a, b []float32) []float32 {
	if len(a) != len(b) {
		return nil
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
