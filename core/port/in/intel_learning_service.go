package in

import (
	"context"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// EditInput describes one accepted user edit.
type EditInput struct {
	OwnerID      uuid.UUID
	OriginalText string
	EditedText   string
	EditTags     []string
	Context      map[string]any
}

// ToneSample is an (original, edited) pair fed to the tone builder.
type ToneSample struct {
	Original string
	Edited   string
}

// PatternLearner turns edits into reusable patterns.
// Both methods degrade to nil or empty results on failure.
type PatternLearner interface {
	LearnFromEdit(ctx context.Context, input EditInput) *domain.LearningPattern
	FindApplicable(ctx context.Context, ownerID uuid.UUID, content string, scope map[string]any) []*domain.LearningPattern
}

// ToneProfileBuilder folds edited samples into an owner's tone profile.
type ToneProfileBuilder interface {
	Update(ctx context.Context, ownerID uuid.UUID, samples []ToneSample) *domain.ToneProfile
}

// LearningService drives learning from edit events.
type LearningService interface {
	HandleDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) error
	RefreshToneProfile(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error)
	GetToneProfile(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error)
	FindApplicable(ctx context.Context, ownerID uuid.UUID, content string, scope map[string]any) []*domain.LearningPattern
}

// LearningDispatcher hands edit events to the learning pipeline without blocking the caller.
type LearningDispatcher interface {
	DispatchDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent)
}
