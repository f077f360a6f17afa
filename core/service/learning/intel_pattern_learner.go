// Package learning turns user edits into correction patterns and tone profiles.
package learning

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
	"intel_server/core/service/common"
	"intel_server/core/service/embedding"
	"intel_server/pkg/logger"

	"github.com/google/uuid"
)

const (
	matchSimilarity      = 0.7
	applicableConfidence = 0.6
	applicableSimilarity = 0.7

	// ContextEditTags is the context key under which edit tags are recorded.
	ContextEditTags = "edit_tags"
)

// PatternLearner implements in.PatternLearner.
type PatternLearner struct {
	repo     out.PatternRepository
	embedder out.EmbeddingProvider
	locker   out.OwnerLocker
}

func NewPatternLearner(repo out.PatternRepository, embedder out.EmbeddingProvider, locker out.OwnerLocker) *PatternLearner {
	return &PatternLearner{repo: repo, embedder: embedder, locker: locker}
}

// LearnFromEdit reinforces the closest existing pattern or records a new one.
// It returns the touched pattern, or nil after logging a failure.
func (l *PatternLearner) LearnFromEdit(ctx context.Context, input in.EditInput) *domain.LearningPattern {
	pattern, err := l.learn(ctx, input)
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id":  input.OwnerID.String(),
			"edit_tags": input.EditTags,
		}).Warn("learn from edit failed")
		return nil
	}
	return pattern
}

func (l *PatternLearner) learn(ctx context.Context, input in.EditInput) (*domain.LearningPattern, error) {
	if strings.TrimSpace(input.OriginalText) == "" || strings.TrimSpace(input.EditedText) == "" {
		return nil, fmt.Errorf("%w: original and edited text are required", common.ErrInvalidInput)
	}
	scope := EditContext(input.Context, input.EditTags)

	unlock, err := l.locker.Lock(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLockTimeout, err)
	}
	defer unlock()

	patterns, err := l.repo.ListByOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}

	if best := bestMatch(patterns, input.OriginalText, scope); best != nil {
		best.IncrementUsage()
		if err := l.repo.Save(ctx, best); err != nil {
			return nil, fmt.Errorf("save pattern: %w", err)
		}
		return best, nil
	}

	pattern := domain.NewLearningPattern(
		input.OwnerID,
		PatternTypeFromTags(input.EditTags),
		input.OriginalText,
		input.EditedText,
		l.semanticDifference(ctx, input.OriginalText, input.EditedText),
		scope,
	)
	if err := l.repo.Save(ctx, pattern); err != nil {
		return nil, fmt.Errorf("save pattern: %w", err)
	}
	return pattern, nil
}

// semanticDifference is embedding(edited) - embedding(original). A provider
// failure leaves the difference empty; the pattern is still recorded.
func (l *PatternLearner) semanticDifference(ctx context.Context, original, edited string) []float32 {
	if l.embedder == nil {
		return nil
	}
	vectors, err := l.embedder.EmbedBatch(ctx, []string{original, edited})
	if err != nil || len(vectors) != 2 {
		logger.WithContext(ctx).WithError(err).Warn("edit embedding failed, pattern stored without semantic difference")
		return nil
	}
	return embedding.Subtract(vectors[1], vectors[0])
}

// FindApplicable returns patterns confident enough, lexically close to
// content and context compatible, by confidence then usage. Store errors
// yield an empty result.
func (l *PatternLearner) FindApplicable(ctx context.Context, ownerID uuid.UUID, content string, scope map[string]any) []*domain.LearningPattern {
	patterns, err := l.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithField("owner_id", ownerID.String()).Warn("list patterns failed")
		return []*domain.LearningPattern{}
	}
	return FilterApplicable(patterns, content, scope)
}

// FilterApplicable applies the confidence, similarity and context tests.
func FilterApplicable(patterns []*domain.LearningPattern, content string, scope map[string]any) []*domain.LearningPattern {
	out := make([]*domain.LearningPattern, 0)
	for _, p := range patterns {
		if p.Confidence() <= applicableConfidence {
			continue
		}
		if Jaccard(content, p.OriginalText) <= applicableSimilarity {
			continue
		}
		if !ContextCompatible(scope, p.Context) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence() != out[j].Confidence() {
			return out[i].Confidence() > out[j].Confidence()
		}
		return out[i].UsageCount() > out[j].UsageCount()
	})
	return out
}

// bestMatch picks the compatible pattern most similar to original, breaking
// ties by confidence.
func bestMatch(patterns []*domain.LearningPattern, original string, scope map[string]any) *domain.LearningPattern {
	var (
		best    *domain.LearningPattern
		bestSim float64
	)
	for _, p := range patterns {
		sim := Jaccard(original, p.OriginalText)
		if sim <= matchSimilarity || !ContextCompatible(scope, p.Context) {
			continue
		}
		if best == nil || sim > bestSim || (sim == bestSim && p.Confidence() > best.Confidence()) {
			best, bestSim = p, sim
		}
	}
	return best
}

// EditContext copies base and records the edit tags under ContextEditTags.
func EditContext(base map[string]any, tags []string) map[string]any {
	out := make(map[string]any, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	if len(tags) > 0 {
		out[ContextEditTags] = append([]string(nil), tags...)
	}
	return out
}

// PatternTypeFromTags maps edit tags to a pattern type. Category tags win
// over priority tags; anything else is a tone adjustment.
func PatternTypeFromTags(tags []string) domain.PatternType {
	hasPriority := false
	for _, t := range tags {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "category":
			return domain.PatternCategoryCorrection
		case "priority":
			hasPriority = true
		}
	}
	if hasPriority {
		return domain.PatternPriorityAdjustment
	}
	return domain.PatternToneAdjustment
}
