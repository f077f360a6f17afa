package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the learning stream.
const (
	EventDraftEdited    = "draft_edited"
	EventEmailProcessed = "email_processed"
)

// DraftEditedEvent is emitted once a user edit of a draft has been saved.
type DraftEditedEvent struct {
	DraftID         uuid.UUID      `json:"draft_id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	OriginalContent string         `json:"original_content"`
	EditedContent   string         `json:"edited_content"`
	EditTypes       []string       `json:"edit_types"`
	Context         map[string]any `json:"context,omitempty"`
	EditedAt        time.Time      `json:"edited_at"`
}

// EmailProcessedEvent is emitted after a new message has been classified.
type EmailProcessedEvent struct {
	ProcessedEmailID uuid.UUID            `json:"processed_email_id"`
	OwnerID          uuid.UUID            `json:"owner_id"`
	EmailID          string               `json:"email_id"`
	Classification   ClassificationResult `json:"classification"`
	ProcessedAt      time.Time            `json:"processed_at"`
}
