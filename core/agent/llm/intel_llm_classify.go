package llm

import (
	"context"
	"fmt"
	"strings"

	"intel_server/core/domain"
)

const classifyPromptTemplate = `You are an email triage assistant. Classify the email and answer with a single JSON object:
{
  "priority": 0-3 (0 low, 1 medium, 2 high, 3 critical),
  "category": one of %s,
  "requiresResponse": true or false,
  "confidenceScore": number between 0 and 1,
  "keywords": array of short lowercase keywords,
  "actionItems": short string describing what the recipient should do, or null
}
Use the previously classified similar emails, when given, as guidance for this user's preferences.
Output only the JSON object.`

var classifySystemPrompt = fmt.Sprintf(classifyPromptTemplate, categoryList())

func categoryList() string {
	names := make([]string, len(domain.AllCategories))
	for i, c := range domain.AllCategories {
		names[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(names, ", ")
}

// ClassifyEmail asks the model for a classification and returns its raw JSON reply.
func (c *Client) ClassifyEmail(ctx context.Context, subject, body, sender, digest string) (string, error) {
	var b strings.Builder
	if digest != "" {
		b.WriteString(digest)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "From: %s\nSubject: %s\n\n%s", sender, subject, truncateBody(body, 3000))

	return c.completeWithSystem(ctx, classifySystemPrompt, b.String(), true)
}
