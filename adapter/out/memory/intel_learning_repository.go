package memory

import (
	"context"
	"sort"
	"sync"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// PatternRepository keeps learning patterns in memory.
type PatternRepository struct {
	mu       sync.RWMutex
	patterns map[uuid.UUID]domain.LearningPattern
}

func NewPatternRepository() *PatternRepository {
	return &PatternRepository{patterns: make(map[uuid.UUID]domain.LearningPattern)}
}

func (r *PatternRepository) Save(ctx context.Context, pattern *domain.LearningPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[pattern.ID] = *pattern
	return nil
}

func (r *PatternRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.LearningPattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	return &p, nil
}

func (r *PatternRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.LearningPattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.LearningPattern, 0)
	for _, p := range r.patterns {
		if p.OwnerID == ownerID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PatternRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.patterns[id]; ok && p.OwnerID == ownerID {
		delete(r.patterns, id)
	}
	return nil
}

// ToneProfileRepository keeps one tone profile per owner in memory.
type ToneProfileRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]domain.ToneProfile
}

func NewToneProfileRepository() *ToneProfileRepository {
	return &ToneProfileRepository{profiles: make(map[uuid.UUID]domain.ToneProfile)}
}

func (r *ToneProfileRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[ownerID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ToneProfileRepository) Save(ctx context.Context, profile *domain.ToneProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.OwnerID] = *profile
	return nil
}
