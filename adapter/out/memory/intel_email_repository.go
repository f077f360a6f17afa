package memory

import (
	"context"
	"sort"
	"sync"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// DraftRepository keeps drafts in memory.
type DraftRepository struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]domain.EmailDraft
}

func NewDraftRepository() *DraftRepository {
	return &DraftRepository{drafts: make(map[uuid.UUID]domain.EmailDraft)}
}

func (r *DraftRepository) Save(ctx context.Context, draft *domain.EmailDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *draft
	cp.EditTypes = append([]string(nil), draft.EditTypes...)
	r.drafts[draft.ID] = cp
	return nil
}

func (r *DraftRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, nil
	}
	return &d, nil
}

func (r *DraftRepository) ListUnlearnedEdits(ctx context.Context, ownerID uuid.UUID) ([]*domain.EmailDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.EmailDraft, 0)
	for _, d := range r.drafts {
		if d.OwnerID == ownerID && d.EditCount > 0 && !d.Learned {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *DraftRepository) MarkLearned(ctx context.Context, ownerID uuid.UUID, drafts []*domain.EmailDraft) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	marked := 0
	for _, d := range drafts {
		stored, ok := r.drafts[d.ID]
		if !ok || stored.OwnerID != ownerID || !stored.UpdatedAt.Equal(d.UpdatedAt) {
			continue
		}
		stored.Learned = true
		r.drafts[d.ID] = stored
		marked++
	}
	return marked, nil
}

// ProcessedEmailRepository keeps processed emails in memory.
type ProcessedEmailRepository struct {
	mu     sync.RWMutex
	emails map[uuid.UUID]domain.ProcessedEmail
}

func NewProcessedEmailRepository() *ProcessedEmailRepository {
	return &ProcessedEmailRepository{emails: make(map[uuid.UUID]domain.ProcessedEmail)}
}

func (r *ProcessedEmailRepository) Save(ctx context.Context, email *domain.ProcessedEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *email
	cp.Corrections = append([]domain.Correction(nil), email.Corrections...)
	r.emails[email.ID] = cp
	return nil
}

func (r *ProcessedEmailRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.ProcessedEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.emails[id]
	if !ok || e.OwnerID != ownerID {
		return nil, nil
	}
	return &e, nil
}

func (r *ProcessedEmailRepository) GetByEmailID(ctx context.Context, ownerID uuid.UUID, emailID string) (*domain.ProcessedEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.emails {
		if e.OwnerID == ownerID && e.EmailID == emailID {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

// List returns the owner's emails newest first, paged by filter.
func (r *ProcessedEmailRepository) List(ctx context.Context, ownerID uuid.UUID, filter domain.EmailFilter) ([]*domain.ProcessedEmail, int, error) {
	filter.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.ProcessedEmail, 0)
	for _, e := range r.emails {
		if e.OwnerID != ownerID || !filter.Matches(&e) {
			continue
		}
		e := e
		matched = append(matched, &e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ReceivedAt.After(matched[j].ReceivedAt) })

	total := len(matched)
	if filter.Offset >= total {
		return []*domain.ProcessedEmail{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}
