package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLearningPatternIncrementUsageCapsAtOne(t *testing.T) {
	p := NewLearningPattern(uuid.New(), PatternToneAdjustment, "hi there", "dear sir", nil, nil)
	assert.Equal(t, 0.5, p.Confidence())
	assert.Equal(t, 1, p.UsageCount())

	prev := p.Confidence()
	for i := 0; i < 6; i++ {
		p.IncrementUsage()
		assert.GreaterOrEqual(t, p.Confidence(), prev)
		assert.LessOrEqual(t, p.Confidence(), 1.0)
		prev = p.Confidence()
	}

	assert.Equal(t, 1.0, p.Confidence())
	assert.Equal(t, 7, p.UsageCount())

	p.IncrementUsage()
	assert.Equal(t, 1.0, p.Confidence())
}

func TestLearningPatternUpdateConfidenceClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.3, 0},
		{0.42, 0.42},
		{1.7, 1},
	}

	p := NewLearningPattern(uuid.New(), PatternCategoryCorrection, "a", "b", nil, nil)
	for _, tt := range tests {
		p.UpdateConfidence(tt.in)
		if p.Confidence() != tt.want {
			t.Errorf("UpdateConfidence(%v) = %v, want %v", tt.in, p.Confidence(), tt.want)
		}
	}
}

func TestRestoreLearningPatternClamps(t *testing.T) {
	base := NewLearningPattern(uuid.New(), PatternPriorityAdjustment, "a", "b", nil, nil)
	restored := RestoreLearningPattern(*base, 3.2, 9, base.LastUsedAt())

	assert.Equal(t, 1.0, restored.Confidence())
	assert.Equal(t, 9, restored.UsageCount())
	assert.Equal(t, base.ID, restored.ID)
}
