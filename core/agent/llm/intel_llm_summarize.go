package llm

import (
	"context"
	"fmt"
	"strings"
)

// Summarize condenses text to at most maxWords words.
func (c *Client) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 50
	}
	systemPrompt := fmt.Sprintf(`You are an email summarization AI. Summarize the email in at most %d words.
Focus on the main point and any requested action. Output only the summary.`, maxWords)

	summary, err := c.completeWithSystem(ctx, systemPrompt, truncateBody(text, 3000), false)
	if err != nil {
		return "", err
	}
	return limitWords(strings.TrimSpace(summary), maxWords), nil
}

func limitWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
