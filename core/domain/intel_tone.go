package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ToneStyle is the coarse register of a user's writing.
type ToneStyle string

const (
	ToneFormal       ToneStyle = "formal"
	ToneCasual       ToneStyle = "casual"
	ToneProfessional ToneStyle = "professional"
)

const (
	initialToneConfidence = 0.1
	maxToneConfidence     = 0.95
	toneConfidenceStep    = 0.05
)

// ToneUpdate carries freshly derived descriptors from a batch of samples.
type ToneUpdate struct {
	Characteristics  string
	Style            ToneStyle
	PreferredPhrases []string
	AvoidedPhrases   []string
	Samples          int
}

// ToneProfile describes how an owner writes. One per owner.
type ToneProfile struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          uuid.UUID `json:"owner_id"`
	Characteristics  string    `json:"characteristics"`
	PreferredPhrases []string  `json:"preferred_phrases"`
	AvoidedPhrases   []string  `json:"avoided_phrases"`
	Style            ToneStyle `json:"style"`
	CreatedAt        time.Time `json:"created_at"`

	confidence  float64
	sampleCount int
	updatedAt   time.Time
}

// NewToneProfile creates a profile from its first derived descriptors.
// It starts at confidence 0.1 with no samples counted.
func NewToneProfile(owner uuid.UUID, u ToneUpdate) *ToneProfile {
	now := time.Now().UTC()
	return &ToneProfile{
		ID:               uuid.New(),
		OwnerID:          owner,
		Characteristics:  u.Characteristics,
		PreferredPhrases: nonNil(u.PreferredPhrases),
		AvoidedPhrases:   nonNil(u.AvoidedPhrases),
		Style:            u.Style,
		CreatedAt:        now,
		confidence:       initialToneConfidence,
		updatedAt:        now,
	}
}

// RestoreToneProfile rebuilds a stored profile, clamping its confidence.
func RestoreToneProfile(p ToneProfile, confidence float64, sampleCount int, updatedAt time.Time) *ToneProfile {
	p.confidence = math.Max(0, math.Min(maxToneConfidence, confidence))
	p.sampleCount = sampleCount
	p.updatedAt = updatedAt
	p.PreferredPhrases = nonNil(p.PreferredPhrases)
	p.AvoidedPhrases = nonNil(p.AvoidedPhrases)
	return &p
}

func (p *ToneProfile) Confidence() float64  { return p.confidence }
func (p *ToneProfile) SampleCount() int     { return p.sampleCount }
func (p *ToneProfile) UpdatedAt() time.Time { return p.updatedAt }

// Merge folds u into the profile. Confidence grows by 0.05 per sample, capped at 0.95.
func (p *ToneProfile) Merge(u ToneUpdate) {
	n := u.Samples
	if n < 0 {
		n = 0
	}
	p.confidence = math.Min(maxToneConfidence, p.confidence+toneConfidenceStep*float64(n))
	p.sampleCount += n
	p.Characteristics = u.Characteristics
	p.Style = u.Style
	p.PreferredPhrases = nonNil(u.PreferredPhrases)
	p.AvoidedPhrases = nonNil(u.AvoidedPhrases)
	p.updatedAt = time.Now().UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
