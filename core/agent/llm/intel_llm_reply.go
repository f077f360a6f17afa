package llm

import (
	"context"
	"fmt"
	"strings"

	"intel_server/core/port/out"

	"github.com/goccy/go-json"
)

const maxPromptPatterns = 5

type replyOutput struct {
	Reply      string   `json:"reply"`
	Confidence *float64 `json:"confidence"`
}

// GenerateReply drafts a reply body shaped by the owner's tone profile and
// learned corrections.
func (c *Client) GenerateReply(ctx context.Context, req *out.ReplyRequest) (*out.ReplyResult, error) {
	if req == nil {
		return nil, fmt.Errorf("llm: nil reply request")
	}

	systemPrompt := fmt.Sprintf(`You are an email reply assistant. Write a reply that matches the user's writing style.

%s

Write a natural, contextually appropriate reply. Do not include a subject line or headers.
Answer with a JSON object {"reply": "<reply body>", "confidence": <0..1 how well the reply fits>}.`, StyleContext(req))

	userPrompt := fmt.Sprintf("Original email from %s:\nSubject: %s\nCategory: %s, priority: %s\n\n%s",
		req.Sender, req.Subject, req.Classification.Category, req.Classification.Priority, truncateBody(req.Body, 2000))
	if req.AdditionalContext != "" {
		userPrompt += "\n\nAdditional context from the user:\n" + req.AdditionalContext
	}

	raw, err := c.completeWithSystem(ctx, systemPrompt, userPrompt, true)
	if err != nil {
		return nil, err
	}

	var parsed replyOutput
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	content := strings.TrimSpace(parsed.Reply)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	confidence := 0.7
	if parsed.Confidence != nil {
		confidence = clampUnit(*parsed.Confidence)
	}
	return &out.ReplyResult{
		Content:      content,
		Confidence:   confidence,
		QualityScore: QualityScore(req),
		Model:        c.model,
	}, nil
}

// StyleContext renders the tone profile and learned corrections as prompt guidance.
func StyleContext(req *out.ReplyRequest) string {
	var b strings.Builder
	if t := req.Tone; t != nil {
		fmt.Fprintf(&b, "Writing style: %s\n", t.Style)
		if t.Characteristics != "" {
			fmt.Fprintf(&b, "Characteristics: %s\n", t.Characteristics)
		}
		if len(t.PreferredPhrases) > 0 {
			fmt.Fprintf(&b, "Phrases the user likes: %s\n", strings.Join(t.PreferredPhrases, " | "))
		}
		if len(t.AvoidedPhrases) > 0 {
			fmt.Fprintf(&b, "Phrases the user removes: %s\n", strings.Join(t.AvoidedPhrases, " | "))
		}
	} else {
		b.WriteString("Writing style: professional\n")
	}

	patterns := req.Patterns
	if len(patterns) > maxPromptPatterns {
		patterns = patterns[:maxPromptPatterns]
	}
	if len(patterns) > 0 {
		b.WriteString("Corrections the user made to similar drafts:\n")
		for i, p := range patterns {
			fmt.Fprintf(&b, "%d. %q was changed to %q\n", i+1, truncateBody(p.OriginalText, 200), truncateBody(p.ModifiedText, 200))
		}
	}
	return b.String()
}

// QualityScore estimates how well-informed a draft is: a confident tone
// profile and applicable patterns each raise it from a 0.6 base.
func QualityScore(req *out.ReplyRequest) float64 {
	score := 0.6
	if req.Tone != nil && req.Tone.Confidence() >= 0.5 {
		score += 0.2
	}
	bonus := 0.05 * float64(len(req.Patterns))
	if bonus > 0.2 {
		bonus = 0.2
	}
	return clampUnit(score + bonus)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
