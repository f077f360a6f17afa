package domain

import (
	"time"

	"github.com/google/uuid"
)

// Correction kinds recorded on a processed email.
const (
	CorrectionPriority = "priority"
	CorrectionCategory = "category"
)

// Correction is a user override of one classification field.
type Correction struct {
	Kind      string    `json:"kind" bson:"kind"`
	From      string    `json:"from" bson:"from"`
	To        string    `json:"to" bson:"to"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ProcessedEmail is a classified message together with any user corrections.
type ProcessedEmail struct {
	ID             uuid.UUID            `json:"id"`
	OwnerID        uuid.UUID            `json:"owner_id"`
	EmailID        string               `json:"email_id"`
	Subject        string               `json:"subject"`
	From           string               `json:"from"`
	To             []string             `json:"to"`
	Body           string               `json:"body"`
	ReceivedAt     time.Time            `json:"received_at"`
	ProcessedAt    time.Time            `json:"processed_at"`
	Classification ClassificationResult `json:"classification"`
	Corrections    []Correction         `json:"corrections,omitempty"`
}

// NewProcessedEmail wraps a freshly classified message.
func NewProcessedEmail(owner uuid.UUID, emailID, subject, from string, to []string, body string, receivedAt time.Time, result ClassificationResult) *ProcessedEmail {
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	return &ProcessedEmail{
		ID:             uuid.New(),
		OwnerID:        owner,
		EmailID:        emailID,
		Subject:        subject,
		From:           from,
		To:             to,
		Body:           body,
		ReceivedAt:     receivedAt,
		ProcessedAt:    time.Now().UTC(),
		Classification: result,
	}
}

// CorrectPriority overrides the priority and returns the previous value.
func (e *ProcessedEmail) CorrectPriority(p Priority) Priority {
	old := e.Classification.Priority
	e.Classification.Priority = p
	e.Corrections = append(e.Corrections, Correction{
		Kind:      CorrectionPriority,
		From:      old.String(),
		To:        p.String(),
		CreatedAt: time.Now().UTC(),
	})
	return old
}

// CorrectCategory overrides the category and returns the previous value.
func (e *ProcessedEmail) CorrectCategory(c Category) Category {
	old := e.Classification.Category
	e.Classification.Category = c
	e.Corrections = append(e.Corrections, Correction{
		Kind:      CorrectionCategory,
		From:      string(old),
		To:        string(c),
		CreatedAt: time.Now().UTC(),
	})
	return old
}

// EmailFilter narrows a listing of processed emails.
type EmailFilter struct {
	Priority         *Priority
	Category         *Category
	RequiresResponse *bool
	Limit            int
	Offset           int
}

// Normalize applies the default and maximum page size.
func (f *EmailFilter) Normalize() {
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Matches reports whether e passes the filter's field constraints.
func (f *EmailFilter) Matches(e *ProcessedEmail) bool {
	if f.Priority != nil && e.Classification.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && e.Classification.Category != *f.Category {
		return false
	}
	if f.RequiresResponse != nil && e.Classification.RequiresResponse != *f.RequiresResponse {
		return false
	}
	return true
}

// LearningContext is the context attached to patterns learned from this
// message and used when looking them up.
func (e *ProcessedEmail) LearningContext() map[string]any {
	return map[string]any{
		"category": string(e.Classification.Category),
		"priority": e.Classification.Priority.String(),
	}
}
