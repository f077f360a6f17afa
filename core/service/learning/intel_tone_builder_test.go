package learning

import (
	"context"
	"testing"

	"intel_server/adapter/out/lock"
	"intel_server/adapter/out/memory"
	"intel_server/core/domain"
	"intel_server/core/port/in"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectStyle(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  domain.ToneStyle
	}{
		{"formal wins over casual", []string{"Hi Bob,\nsee below.\nBest regards"}, domain.ToneFormal},
		{"formal in a later text", []string{"Thanks!", "Dear team, sincerely yours"}, domain.ToneFormal},
		{"casual", []string{"Hi there, thanks for this"}, domain.ToneCasual},
		{"professional", []string{"Please find the report attached."}, domain.ToneProfessional},
		{"markers need word boundaries", []string{"This chip ships to Chicago"}, domain.ToneProfessional},
		{"no texts", nil, domain.ToneProfessional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectStyle(tt.texts))
		})
	}
}

func TestDeriveTone(t *testing.T) {
	u := DeriveTone([]in.ToneSample{{
		Original: "Hey Bob,\nsend it.\nCheers",
		Edited:   "Dear Bob,\nPlease send it.\nBest regards,\nAna",
	}})

	assert.Equal(t, domain.ToneFormal, u.Style)
	assert.Equal(t, []string{"Dear Bob,", "Best regards,"}, u.PreferredPhrases)
	assert.Equal(t, []string{"Hey Bob,", "Cheers"}, u.AvoidedPhrases)
	assert.Equal(t, 1, u.Samples)
	assert.Contains(t, u.Characteristics, "Style: formal")
	assert.Contains(t, u.Characteristics, "analyzed from 1 samples")
}

func TestDeriveToneKeepsPhrasesStillUsed(t *testing.T) {
	u := DeriveTone([]in.ToneSample{{
		Original: "Hi Sam,\nok\nThanks",
		Edited:   "Hi Sam,\nThat works for me.\nThanks",
	}})

	assert.Equal(t, domain.ToneCasual, u.Style)
	assert.Equal(t, []string{"Hi Sam,", "Thanks"}, u.PreferredPhrases)
	assert.NotNil(t, u.AvoidedPhrases)
	assert.Empty(t, u.AvoidedPhrases)
}

func TestToneBuilderCreatesThenMerges(t *testing.T) {
	repo := memory.NewToneProfileRepository()
	builder := NewToneBuilder(repo, lock.NewLocalLocker(0))
	owner := uuid.New()
	ctx := context.Background()
	sample := in.ToneSample{Original: "hey", Edited: "Dear Kim,\nThank you.\nSincerely,\nLee"}

	created := builder.Update(ctx, owner, []in.ToneSample{sample})
	require.NotNil(t, created)
	assert.Equal(t, 0.1, created.Confidence())
	assert.Equal(t, 0, created.SampleCount())
	assert.Equal(t, domain.ToneFormal, created.Style)

	merged := builder.Update(ctx, owner, []in.ToneSample{sample, sample})
	require.NotNil(t, merged)
	assert.Equal(t, created.ID, merged.ID)
	assert.InDelta(t, 0.2, merged.Confidence(), 1e-9)
	assert.Equal(t, 2, merged.SampleCount())

	stored, err := repo.GetByOwner(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.InDelta(t, 0.2, stored.Confidence(), 1e-9)
}

func TestToneBuilderConfidenceCap(t *testing.T) {
	builder := NewToneBuilder(memory.NewToneProfileRepository(), lock.NewLocalLocker(0))
	owner := uuid.New()
	ctx := context.Background()

	require.NotNil(t, builder.Update(ctx, owner, []in.ToneSample{{Original: "a", Edited: "b"}}))

	samples := make([]in.ToneSample, 20)
	for i := range samples {
		samples[i] = in.ToneSample{Original: "hey", Edited: "Hello, thanks"}
	}
	p := builder.Update(ctx, owner, samples)
	require.NotNil(t, p)
	assert.Equal(t, 0.95, p.Confidence())
	assert.Equal(t, 20, p.SampleCount())
}
