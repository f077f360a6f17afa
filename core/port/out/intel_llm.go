package out

import (
	"context"

	"intel_server/core/domain"
)

// GenerativeClassifier asks a language model to classify a message. The
// returned text is expected to be a JSON object; callers own parsing.
type GenerativeClassifier interface {
	ClassifyEmail(ctx context.Context, subject, body, sender, digest string) (string, error)
}

// Summarizer condenses text to at most maxWords words.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}

// ReplyGenerator drafts a reply in the owner's voice.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req *ReplyRequest) (*ReplyResult, error)
}

// ReplyRequest is the input for reply generation.
type ReplyRequest struct {
	Subject           string
	Body              string
	Sender            string
	Classification    domain.ClassificationResult
	Tone              *domain.ToneProfile
	Patterns          []*domain.LearningPattern
	AdditionalContext string
}

// ReplyResult is a generated reply body with its self-assessed scores.
type ReplyResult struct {
	Content      string  `json:"content"`
	Confidence   float64 `json:"confidence"`
	QualityScore float64 `json:"quality_score"`
	Model        string  `json:"model"`
}
