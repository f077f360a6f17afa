package http

import (
	"time"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

type classificationResponse struct {
	Priority         string   `json:"priority"`
	Category         string   `json:"category"`
	RequiresResponse bool     `json:"requires_response"`
	Confidence       float64  `json:"confidence"`
	Keywords         []string `json:"keywords"`
	ActionItems      *string  `json:"action_items,omitempty"`
}

func toClassificationResponse(r domain.ClassificationResult) classificationResponse {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return classificationResponse{
		Priority:         r.Priority.String(),
		Category:         string(r.Category),
		RequiresResponse: r.RequiresResponse,
		Confidence:       r.Confidence,
		Keywords:         keywords,
		ActionItems:      r.ActionItems,
	}
}

type processedEmailResponse struct {
	ID             uuid.UUID              `json:"id"`
	EmailID        string                 `json:"email_id"`
	Subject        string                 `json:"subject"`
	From           string                 `json:"from"`
	To             []string               `json:"to"`
	ReceivedAt     time.Time              `json:"received_at"`
	ProcessedAt    time.Time              `json:"processed_at"`
	Classification classificationResponse `json:"classification"`
	Corrections    []domain.Correction    `json:"corrections"`
}

func toProcessedEmailResponse(e *domain.ProcessedEmail) processedEmailResponse {
	corrections := e.Corrections
	if corrections == nil {
		corrections = []domain.Correction{}
	}
	return processedEmailResponse{
		ID:             e.ID,
		EmailID:        e.EmailID,
		Subject:        e.Subject,
		From:           e.From,
		To:             e.To,
		ReceivedAt:     e.ReceivedAt,
		ProcessedAt:    e.ProcessedAt,
		Classification: toClassificationResponse(e.Classification),
		Corrections:    corrections,
	}
}

type draftResponse struct {
	ID               uuid.UUID  `json:"id"`
	ProcessedEmailID uuid.UUID  `json:"processed_email_id"`
	Subject          string     `json:"subject"`
	Content          string     `json:"content"`
	Status           string     `json:"status"`
	Confidence       float64    `json:"confidence"`
	QualityScore     float64    `json:"quality_score"`
	Model            string     `json:"model"`
	EditCount        int        `json:"edit_count"`
	EditTypes        []string   `json:"edit_types"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
}

func toDraftResponse(d *domain.EmailDraft) draftResponse {
	return draftResponse{
		ID:               d.ID,
		ProcessedEmailID: d.ProcessedEmailID,
		Subject:          d.Subject,
		Content:          d.Content,
		Status:           string(d.Status),
		Confidence:       d.Confidence,
		QualityScore:     d.QualityScore,
		Model:            d.Model,
		EditCount:        d.EditCount,
		EditTypes:        d.EditTypes,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		SentAt:           d.SentAt,
	}
}

type patternResponse struct {
	ID           uuid.UUID      `json:"id"`
	PatternType  string         `json:"pattern_type"`
	OriginalText string         `json:"original_text"`
	ModifiedText string         `json:"modified_text"`
	Context      map[string]any `json:"context"`
	Confidence   float64        `json:"confidence"`
	UsageCount   int            `json:"usage_count"`
	LastUsedAt   time.Time      `json:"last_used_at"`
}

func toPatternResponses(patterns []*domain.LearningPattern) []patternResponse {
	out := make([]patternResponse, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, patternResponse{
			ID:           p.ID,
			PatternType:  string(p.PatternType),
			OriginalText: p.OriginalText,
			ModifiedText: p.ModifiedText,
			Context:      p.Context,
			Confidence:   p.Confidence(),
			UsageCount:   p.UsageCount(),
			LastUsedAt:   p.LastUsedAt(),
		})
	}
	return out
}

type toneProfileResponse struct {
	ID               uuid.UUID `json:"id"`
	Style            string    `json:"style"`
	Characteristics  string    `json:"characteristics"`
	PreferredPhrases []string  `json:"preferred_phrases"`
	AvoidedPhrases   []string  `json:"avoided_phrases"`
	Confidence       float64   `json:"confidence"`
	SampleCount      int       `json:"sample_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toToneProfileResponse(p *domain.ToneProfile) toneProfileResponse {
	return toneProfileResponse{
		ID:               p.ID,
		Style:            string(p.Style),
		Characteristics:  p.Characteristics,
		PreferredPhrases: p.PreferredPhrases,
		AvoidedPhrases:   p.AvoidedPhrases,
		Confidence:       p.Confidence(),
		SampleCount:      p.SampleCount(),
		UpdatedAt:        p.UpdatedAt(),
	}
}
