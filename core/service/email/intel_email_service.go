// Package email records classified messages and turns user corrections into
// learning signals.
package email

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

// Service implements in.EmailService.
type Service struct {
	emails     out.ProcessedEmailRepository
	classifier in.ClassificationService
	learner    in.PatternLearner
	publisher  out.EventPublisher // optional
}

func NewService(emails out.ProcessedEmailRepository, classifier in.ClassificationService, learner in.PatternLearner, publisher out.EventPublisher) *Service {
	return &Service{
		emails:     emails,
		classifier: classifier,
		learner:    learner,
		publisher:  publisher,
	}
}

// Process classifies and records a message. Reprocessing a known EmailID
// returns the stored result unchanged.
func (s *Service) Process(ctx context.Context, input *in.ProcessEmailInput) (*domain.ProcessedEmail, error) {
	if input == nil || input.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", common.ErrInvalidInput)
	}
	if strings.TrimSpace(input.EmailID) == "" {
		return nil, fmt.Errorf("%w: email_id is required", common.ErrInvalidInput)
	}
	if strings.TrimSpace(input.Subject) == "" && strings.TrimSpace(input.Body) == "" {
		return nil, fmt.Errorf("%w: subject or body is required", common.ErrInvalidInput)
	}

	existing, err := s.emails.GetByEmailID(ctx, input.OwnerID, input.EmailID)
	if err != nil {
		return nil, fmt.Errorf("lookup processed email: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	result := s.classifier.Classify(ctx, in.ClassifyInput{
		OwnerID: input.OwnerID,
		EmailID: input.EmailID,
		Subject: input.Subject,
		Body:    input.Body,
		Sender:  input.From,
	})

	processed := domain.NewProcessedEmail(input.OwnerID, input.EmailID, input.Subject, input.From, input.To, input.Body, input.ReceivedAt, result)
	if err := s.emails.Save(ctx, processed); err != nil {
		return nil, fmt.Errorf("save processed email: %w", err)
	}

	if s.publisher != nil {
		evt := &domain.EmailProcessedEvent{
			ProcessedEmailID: processed.ID,
			OwnerID:          processed.OwnerID,
			EmailID:          processed.EmailID,
			Classification:   processed.Classification,
			ProcessedAt:      processed.ProcessedAt,
		}
		if err := s.publisher.PublishEmailProcessed(ctx, evt); err != nil {
			logger.WithContext(ctx).WithError(err).WithField("email_id", processed.EmailID).Warn("publish email processed failed")
		}
	}
	return processed, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.ProcessedEmail, error) {
	processed, err := s.emails.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("load processed email: %w", err)
	}
	if processed == nil {
		return nil, common.ErrNotFound
	}
	return processed, nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter domain.EmailFilter) ([]*domain.ProcessedEmail, int, error) {
	filter.Normalize()
	return s.emails.List(ctx, ownerID, filter)
}

// CorrectPriority overrides the priority and learns from the correction.
func (s *Service) CorrectPriority(ctx context.Context, ownerID, id uuid.UUID, priority domain.Priority) (*domain.ProcessedEmail, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: priority %d", common.ErrInvalidInput, int(priority))
	}
	processed, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	scope := processed.LearningContext()
	old := processed.CorrectPriority(priority)
	if err := s.emails.Save(ctx, processed); err != nil {
		return nil, fmt.Errorf("save processed email: %w", err)
	}
	if old != priority {
		s.learn(ctx, processed, domain.CorrectionPriority, old.String(), priority.String(), scope)
	}
	return processed, nil
}

// CorrectCategory overrides the category and learns from the correction.
func (s *Service) CorrectCategory(ctx context.Context, ownerID, id uuid.UUID, category domain.Category) (*domain.ProcessedEmail, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: category %q", common.ErrInvalidInput, category)
	}
	processed, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	scope := processed.LearningContext()
	old := processed.CorrectCategory(category)
	if err := s.emails.Save(ctx, processed); err != nil {
		return nil, fmt.Errorf("save processed email: %w", err)
	}
	if old != category {
		s.learn(ctx, processed, domain.CorrectionCategory, string(old), string(category), scope)
	}
	return processed, nil
}

func (s *Service) learn(ctx context.Context, processed *domain.ProcessedEmail, kind, from, to string, scope map[string]any) {
	if s.learner == nil {
		return
	}
	s.learner.LearnFromEdit(ctx, in.EditInput{
		OwnerID:      processed.OwnerID,
		OriginalText: CorrectionText(kind, from, processed.Subject),
		EditedText:   CorrectionText(kind, to, processed.Subject),
		EditTags:     []string{kind},
		Context:      scope,
	})
}

// CorrectionText renders one side of a correction as "<kind>:<value>\n<subject>".
func CorrectionText(kind, value, subject string) string {
	return kind + ":" + value + "\n" + subject
}
