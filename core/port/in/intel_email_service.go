package in

import (
	"context"
	"time"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// ProcessEmailInput is an incoming message to classify and record.
type ProcessEmailInput struct {
	OwnerID    uuid.UUID `json:"-"`
	EmailID    string    `json:"email_id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	To         []string  `json:"to"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

type EmailService interface {
	Process(ctx context.Context, input *ProcessEmailInput) (*domain.ProcessedEmail, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.ProcessedEmail, error)
	List(ctx context.Context, ownerID uuid.UUID, filter domain.EmailFilter) ([]*domain.ProcessedEmail, int, error)
	CorrectPriority(ctx context.Context, ownerID, id uuid.UUID, priority domain.Priority) (*domain.ProcessedEmail, error)
	CorrectCategory(ctx context.Context, ownerID, id uuid.UUID, category domain.Category) (*domain.ProcessedEmail, error)
}

type DraftService interface {
	Generate(ctx context.Context, ownerID, processedEmailID uuid.UUID, additionalContext string) (*domain.EmailDraft, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error)
	Edit(ctx context.Context, ownerID, id uuid.UUID, content string, editTypes []string) (*domain.EmailDraft, error)
	Approve(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error)
	Reject(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error)
	MarkSent(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error)
}
