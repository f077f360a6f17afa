package domain

import (
	"time"

	"github.com/google/uuid"
)

// PatternType names the kind of correction a pattern captures.
type PatternType string

const (
	PatternToneAdjustment     PatternType = "tone_adjustment"
	PatternCategoryCorrection PatternType = "category_correction"
	PatternPriorityAdjustment PatternType = "priority_adjustment"
)

const (
	initialPatternConfidence = 0.5
	patternUsageBoost        = 0.1
)

// LearningPattern is a reusable correction learned from a user edit.
// Confidence and usage only change through IncrementUsage and UpdateConfidence.
type LearningPattern struct {
	ID                 uuid.UUID      `json:"id"`
	OwnerID            uuid.UUID      `json:"owner_id"`
	PatternType        PatternType    `json:"pattern_type"`
	OriginalText       string         `json:"original_text"`
	ModifiedText       string         `json:"modified_text"`
	SemanticDifference []float32      `json:"semantic_difference,omitempty"`
	Context            map[string]any `json:"context,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`

	confidence float64
	usageCount int
	lastUsedAt time.Time
}

// NewLearningPattern creates a pattern at confidence 0.5 with one use.
func NewLearningPattern(owner uuid.UUID, patternType PatternType, original, modified string, diff []float32, context map[string]any) *LearningPattern {
	now := time.Now().UTC()
	if context == nil {
		context = make(map[string]any)
	}
	return &LearningPattern{
		ID:                 uuid.New(),
		OwnerID:            owner,
		PatternType:        patternType,
		OriginalText:       original,
		ModifiedText:       modified,
		SemanticDifference: diff,
		Context:            context,
		CreatedAt:          now,
		confidence:         initialPatternConfidence,
		usageCount:         1,
		lastUsedAt:         now,
	}
}

// RestoreLearningPattern rebuilds a stored pattern, clamping its confidence.
func RestoreLearningPattern(p LearningPattern, confidence float64, usageCount int, lastUsedAt time.Time) *LearningPattern {
	p.confidence = clamp01(confidence)
	p.usageCount = usageCount
	p.lastUsedAt = lastUsedAt
	if p.Context == nil {
		p.Context = make(map[string]any)
	}
	return &p
}

func (p *LearningPattern) Confidence() float64   { return p.confidence }
func (p *LearningPattern) UsageCount() int       { return p.usageCount }
func (p *LearningPattern) LastUsedAt() time.Time { return p.lastUsedAt }

// IncrementUsage records another use: confidence grows by 0.1 up to 1.0.
func (p *LearningPattern) IncrementUsage() {
	p.usageCount++
	p.confidence = clamp01(p.confidence + patternUsageBoost)
	p.lastUsedAt = time.Now().UTC()
}

// UpdateConfidence sets confidence explicitly, clamped to [0,1].
func (p *LearningPattern) UpdateConfidence(v float64) {
	p.confidence = clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
