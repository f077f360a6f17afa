package learning

import (
	"context"
	"errors"
	"fmt"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
	"intel_server/core/service/common"
	"intel_server/pkg/logger"

	"github.com/google/uuid"
)

var ErrToneUpdateFailed = errors.New("tone profile update failed")

// Service implements in.LearningService on top of the learner and tone builder.
type Service struct {
	learner    in.PatternLearner
	tone       in.ToneProfileBuilder
	drafts     out.DraftRepository
	profiles   out.ToneProfileRepository
	foldLocker out.OwnerLocker
	toneEvery  int
}

// NewService wires the learning pipeline. foldLocker must not share lock
// state with the tone builder's locker since folding calls the builder while held.
func NewService(learner in.PatternLearner, tone in.ToneProfileBuilder, drafts out.DraftRepository, profiles out.ToneProfileRepository, foldLocker out.OwnerLocker, toneEvery int) *Service {
	if toneEvery <= 0 {
		toneEvery = 5
	}
	return &Service{
		learner:    learner,
		tone:       tone,
		drafts:     drafts,
		profiles:   profiles,
		foldLocker: foldLocker,
		toneEvery:  toneEvery,
	}
}

// HandleDraftEdited learns a pattern from the edit, then folds pending edited
// drafts into the tone profile once enough have accumulated. Learning failures
// are logged; only a nil event is an error.
func (s *Service) HandleDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) error {
	if evt == nil {
		return fmt.Errorf("%w: nil event", common.ErrInvalidInput)
	}
	log := logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id": evt.OwnerID.String(),
		"draft_id": evt.DraftID.String(),
	})

	if p := s.learner.LearnFromEdit(ctx, in.EditInput{
		OwnerID:      evt.OwnerID,
		OriginalText: evt.OriginalContent,
		EditedText:   evt.EditedContent,
		EditTags:     evt.EditTypes,
		Context:      evt.Context,
	}); p != nil {
		log.WithFields(map[string]any{
			"pattern_id":  p.ID.String(),
			"usage_count": p.UsageCount(),
			"confidence":  p.Confidence(),
		}).Debug("edit pattern recorded")
	}

	// A failed fold leaves the drafts pending for the next edit or refresh.
	// Reporting it upstream would redeliver an edit whose pattern is already saved.
	_, folded, err := s.fold(ctx, evt.OwnerID, s.toneEvery)
	if err != nil {
		log.WithError(err).Warn("tone profile fold failed")
		return nil
	}
	if folded > 0 {
		log.WithField("samples", folded).Info("tone profile updated from edited drafts")
	}
	return nil
}

// RefreshToneProfile folds every pending edited draft regardless of count.
func (s *Service) RefreshToneProfile(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error) {
	profile, _, err := s.fold(ctx, ownerID, 1)
	return profile, err
}

func (s *Service) GetToneProfile(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error) {
	profile, err := s.profiles.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load tone profile: %w", err)
	}
	return profile, nil
}

func (s *Service) FindApplicable(ctx context.Context, ownerID uuid.UUID, content string, scope map[string]any) []*domain.LearningPattern {
	return s.learner.FindApplicable(ctx, ownerID, content, scope)
}

// fold updates the profile from pending drafts when at least threshold are waiting.
// It returns the current profile and the number of drafts folded.
func (s *Service) fold(ctx context.Context, ownerID uuid.UUID, threshold int) (*domain.ToneProfile, int, error) {
	unlock, err := s.foldLocker.Lock(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrLockTimeout, err)
	}
	defer unlock()

	pending, err := s.drafts.ListUnlearnedEdits(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("list edited drafts: %w", err)
	}
	if len(pending) == 0 || len(pending) < threshold {
		profile, err := s.GetToneProfile(ctx, ownerID)
		return profile, 0, err
	}

	samples := make([]in.ToneSample, 0, len(pending))
	for _, d := range pending {
		samples = append(samples, in.ToneSample{Original: d.GeneratedContent, Edited: d.Content})
	}

	profile := s.tone.Update(ctx, ownerID, samples)
	if profile == nil {
		return nil, 0, ErrToneUpdateFailed
	}

	marked, err := s.drafts.MarkLearned(ctx, ownerID, pending)
	if err != nil {
		return profile, 0, fmt.Errorf("mark drafts learned: %w", err)
	}
	return profile, marked, nil
}
