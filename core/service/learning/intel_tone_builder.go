package learning

import (
	"context"
	"fmt"
	"strings"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
	"intel_server/pkg/logger"

	"github.com/google/uuid"
)

// ToneBuilder implements in.ToneProfileBuilder.
type ToneBuilder struct {
	repo   out.ToneProfileRepository
	locker out.OwnerLocker
}

func NewToneBuilder(repo out.ToneProfileRepository, locker out.OwnerLocker) *ToneBuilder {
	return &ToneBuilder{repo: repo, locker: locker}
}

// Update derives descriptors from samples and creates or merges the owner's
// profile. It returns the saved profile, or nil after logging a failure.
func (b *ToneBuilder) Update(ctx context.Context, ownerID uuid.UUID, samples []in.ToneSample) *domain.ToneProfile {
	profile, err := b.update(ctx, ownerID, samples)
	if err != nil {
		logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": ownerID.String(),
			"samples":  len(samples),
		}).Warn("tone profile update failed")
		return nil
	}
	return profile
}

func (b *ToneBuilder) update(ctx context.Context, ownerID uuid.UUID, samples []in.ToneSample) (*domain.ToneProfile, error) {
	derived := DeriveTone(samples)

	unlock, err := b.locker.Lock(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("lock owner: %w", err)
	}
	defer unlock()

	profile, err := b.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load tone profile: %w", err)
	}
	if profile == nil {
		profile = domain.NewToneProfile(ownerID, derived)
	} else {
		profile.Merge(derived)
	}

	if err := b.repo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save tone profile: %w", err)
	}
	return profile, nil
}

// DeriveTone computes style, phrases and a characteristics summary from samples.
func DeriveTone(samples []in.ToneSample) domain.ToneUpdate {
	edited := make([]string, 0, len(samples))
	for _, s := range samples {
		edited = append(edited, s.Edited)
	}

	style := DetectStyle(edited)
	preferred := uniqueLines(nil, edited)

	var avoided []string
	seen := make(map[string]bool)
	for _, s := range samples {
		for _, line := range signatureLines(s.Original) {
			key := strings.ToLower(line)
			if seen[key] || presentInAny(line, edited) {
				continue
			}
			seen[key] = true
			avoided = append(avoided, line)
		}
	}

	characteristics := fmt.Sprintf("Style: %s, formality %.2f, avg sentence length %.1f words, analyzed from %d samples",
		style, formalityScore(edited), averageSentenceLength(edited), len(samples))

	return domain.ToneUpdate{
		Characteristics:  characteristics,
		Style:            style,
		PreferredPhrases: preferred,
		AvoidedPhrases:   nonNilStrings(avoided),
		Samples:          len(samples),
	}
}

func uniqueLines(dst []string, texts []string) []string {
	seen := make(map[string]bool)
	for _, t := range texts {
		for _, line := range signatureLines(t) {
			key := strings.ToLower(line)
			if seen[key] {
				continue
			}
			seen[key] = true
			dst = append(dst, line)
		}
	}
	return nonNilStrings(dst)
}

func presentInAny(line string, texts []string) bool {
	needle := strings.ToLower(line)
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
