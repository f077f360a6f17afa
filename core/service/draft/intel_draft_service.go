// Package draft generates reply drafts and routes user edits to learning.
package draft

import (
	"context"
	"fmt"
	"strings"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
	"intel_server/core/service/common"
	"intel_server/pkg/logger"

	"github.com/google/uuid"
)

const (
	FallbackModel        = "fallback"
	fallbackConfidence   = 0.3
	fallbackQualityScore = 0.5
)

// Service implements in.DraftService.
type Service struct {
	drafts     out.DraftRepository
	emails     out.ProcessedEmailRepository
	learning   in.LearningService
	generator  out.ReplyGenerator // nil drafts from the template
	dispatcher in.LearningDispatcher
}

func NewService(drafts out.DraftRepository, emails out.ProcessedEmailRepository, learning in.LearningService, generator out.ReplyGenerator, dispatcher in.LearningDispatcher) *Service {
	return &Service{
		drafts:     drafts,
		emails:     emails,
		learning:   learning,
		generator:  generator,
		dispatcher: dispatcher,
	}
}

// Generate drafts a reply to a processed email in the owner's voice. Provider
// failures fall back to a template draft.
func (s *Service) Generate(ctx context.Context, ownerID, processedEmailID uuid.UUID, additionalContext string) (*domain.EmailDraft, error) {
	processed, err := s.emails.GetByID(ctx, ownerID, processedEmailID)
	if err != nil {
		return nil, fmt.Errorf("load processed email: %w", err)
	}
	if processed == nil {
		return nil, common.ErrNotFound
	}
	log := logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id":           ownerID.String(),
		"processed_email_id": processedEmailID.String(),
	})

	tone, err := s.learning.GetToneProfile(ctx, ownerID)
	if err != nil {
		log.WithError(err).Warn("tone profile unavailable, drafting without it")
		tone = nil
	}
	req := &out.ReplyRequest{
		Subject:           processed.Subject,
		Body:              processed.Body,
		Sender:            processed.From,
		Classification:    processed.Classification,
		Tone:              tone,
		AdditionalContext: additionalContext,
	}
	result := s.reply(ctx, req)

	// Patterns are keyed on draft text, so they are looked up against the
	// first draft and applied by a second generation.
	patterns := s.learning.FindApplicable(ctx, ownerID, result.Content, processed.LearningContext())
	if len(patterns) > 0 && result.Model != FallbackModel {
		req.Patterns = patterns
		if revised := s.reply(ctx, req); revised.Model != FallbackModel {
			result = revised
		}
	}

	d := domain.NewEmailDraft(ownerID, processed.ID, ReplySubject(processed.Subject), result.Content, result.Model, result.Confidence, result.QualityScore)
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	log.WithFields(map[string]any{
		"draft_id": d.ID.String(),
		"model":    d.Model,
		"patterns": len(patterns),
	}).Info("draft generated")
	return d, nil
}

func (s *Service) reply(ctx context.Context, req *out.ReplyRequest) *out.ReplyResult {
	if s.generator != nil {
		result, err := s.generator.GenerateReply(ctx, req)
		if err == nil && result != nil && strings.TrimSpace(result.Content) != "" {
			return result
		}
		logger.WithContext(ctx).WithError(err).Warn("reply generation failed, using template")
	}
	return &out.ReplyResult{
		Content:      FallbackReply(req.Subject),
		Confidence:   fallbackConfidence,
		QualityScore: fallbackQualityScore,
		Model:        FallbackModel,
	}
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error) {
	d, err := s.drafts.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if d == nil {
		return nil, common.ErrNotFound
	}
	return d, nil
}

// Edit saves the user's version and hands the edit to the learning pipeline.
// It returns once the draft is saved; learning happens asynchronously.
func (s *Service) Edit(ctx context.Context, ownerID, id uuid.UUID, content string, editTypes []string) (*domain.EmailDraft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: edited content is required", common.ErrInvalidInput)
	}
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := d.EditByUser(content, editTypes); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchDraftEdited(ctx, &domain.DraftEditedEvent{
			DraftID:         d.ID,
			OwnerID:         d.OwnerID,
			OriginalContent: d.GeneratedContent,
			EditedContent:   d.Content,
			EditTypes:       editTypes,
			Context:         s.editContext(ctx, d),
			EditedAt:        d.UpdatedAt,
		})
	}
	return d, nil
}

// editContext is the learning context of the email the draft answers.
func (s *Service) editContext(ctx context.Context, d *domain.EmailDraft) map[string]any {
	processed, err := s.emails.GetByID(ctx, d.OwnerID, d.ProcessedEmailID)
	if err != nil || processed == nil {
		return nil
	}
	return processed.LearningContext()
}

func (s *Service) Approve(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error) {
	return s.transition(ctx, ownerID, id, (*domain.EmailDraft).Approve)
}

func (s *Service) Reject(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error) {
	return s.transition(ctx, ownerID, id, (*domain.EmailDraft).Reject)
}

func (s *Service) MarkSent(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error) {
	return s.transition(ctx, ownerID, id, (*domain.EmailDraft).MarkSent)
}

func (s *Service) transition(ctx context.Context, ownerID, id uuid.UUID, apply func(*domain.EmailDraft) error) (*domain.EmailDraft, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := apply(d); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// ReplySubject prefixes "Re: " unless the subject already carries it.
func ReplySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

// FallbackReply is the template used when no model is reachable.
func FallbackReply(subject string) string {
	return fmt.Sprintf(`Thank you for your email regarding "%s".

I have received your message and will review the details you've provided. I'll get back to you with a response as soon as possible.

If you have any urgent questions in the meantime, please don't hesitate to reach out.

Best regards`, strings.TrimSpace(subject))
}
