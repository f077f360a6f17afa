package out

import (
	"context"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// PatternRepository stores learning patterns per owner.
type PatternRepository interface {
	Save(ctx context.Context, pattern *domain.LearningPattern) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.LearningPattern, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.LearningPattern, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ToneProfileRepository stores the single tone profile of each owner.
type ToneProfileRepository interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error)
	Save(ctx context.Context, profile *domain.ToneProfile) error
}

// DraftRepository stores generated drafts.
type DraftRepository interface {
	Save(ctx context.Context, draft *domain.EmailDraft) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error)
	// ListUnlearnedEdits returns edited drafts not yet folded into the tone profile, oldest first.
	ListUnlearnedEdits(ctx context.Context, ownerID uuid.UUID) ([]*domain.EmailDraft, error)
	// MarkLearned flags each draft as learned unless it changed since it was read.
	// It returns how many drafts were marked.
	MarkLearned(ctx context.Context, ownerID uuid.UUID, drafts []*domain.EmailDraft) (int, error)
}

// ProcessedEmailRepository stores classified messages.
type ProcessedEmailRepository interface {
	Save(ctx context.Context, email *domain.ProcessedEmail) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.ProcessedEmail, error)
	GetByEmailID(ctx context.Context, ownerID uuid.UUID, emailID string) (*domain.ProcessedEmail, error)
	List(ctx context.Context, ownerID uuid.UUID, filter domain.EmailFilter) ([]*domain.ProcessedEmail, int, error)
}
