package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DraftStatus tracks a generated reply through review.
type DraftStatus string

const (
	DraftGenerated  DraftStatus = "generated"
	DraftUserEdited DraftStatus = "user_edited"
	DraftApproved   DraftStatus = "approved"
	DraftSent       DraftStatus = "sent"
	DraftRejected   DraftStatus = "rejected"
)

// TransitionError is returned when a draft cannot move to the requested status.
type TransitionError struct {
	From DraftStatus
	To   DraftStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("draft cannot move from %s to %s", e.From, e.To)
}

// EmailDraft is an AI-generated reply awaiting review.
type EmailDraft struct {
	ID               uuid.UUID   `json:"id"`
	OwnerID          uuid.UUID   `json:"owner_id"`
	ProcessedEmailID uuid.UUID   `json:"processed_email_id"`
	Subject          string      `json:"subject"`
	GeneratedContent string      `json:"generated_content"`
	Content          string      `json:"content"`
	Status           DraftStatus `json:"status"`
	Confidence       float64     `json:"confidence"`
	QualityScore     float64     `json:"quality_score"`
	Model            string      `json:"model"`
	EditCount        int         `json:"edit_count"`
	EditTypes        []string    `json:"edit_types"`
	Learned          bool        `json:"learned"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	SentAt           *time.Time  `json:"sent_at,omitempty"`
}

// NewEmailDraft creates a draft in the generated state.
func NewEmailDraft(owner, processedEmailID uuid.UUID, subject, content, model string, confidence, quality float64) *EmailDraft {
	now := time.Now().UTC()
	return &EmailDraft{
		ID:               uuid.New(),
		OwnerID:          owner,
		ProcessedEmailID: processedEmailID,
		Subject:          subject,
		GeneratedContent: content,
		Content:          content,
		Status:           DraftGenerated,
		Confidence:       confidence,
		QualityScore:     quality,
		Model:            model,
		EditTypes:        []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (d *EmailDraft) transition(to DraftStatus, allowed ...DraftStatus) error {
	for _, s := range allowed {
		if d.Status == s {
			d.Status = to
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return &TransitionError{From: d.Status, To: to}
}

// EditByUser replaces the content with the user's version. Editing an
// approved draft sends it back to review.
func (d *EmailDraft) EditByUser(content string, editTypes []string) error {
	if err := d.transition(DraftUserEdited, DraftGenerated, DraftUserEdited, DraftApproved); err != nil {
		return err
	}
	d.Content = content
	d.EditCount++
	d.EditTypes = mergeTags(d.EditTypes, editTypes)
	d.Learned = false
	return nil
}

func (d *EmailDraft) Approve() error {
	return d.transition(DraftApproved, DraftGenerated, DraftUserEdited)
}

func (d *EmailDraft) Reject() error {
	return d.transition(DraftRejected, DraftGenerated, DraftUserEdited, DraftApproved)
}

func (d *EmailDraft) MarkSent() error {
	if err := d.transition(DraftSent, DraftApproved); err != nil {
		return err
	}
	now := d.UpdatedAt
	d.SentAt = &now
	return nil
}

// MarkLearned records that the edit has been folded into the tone profile.
func (d *EmailDraft) MarkLearned() {
	d.Learned = true
	d.UpdatedAt = time.Now().UTC()
}

// WasEdited reports whether the user changed the generated text.
func (d *EmailDraft) WasEdited() bool {
	return d.EditCount > 0 && d.Content != d.GeneratedContent
}

func mergeTags(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, t := range append(append([]string{}, existing...), added...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
