package classification

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"intel_server/core/domain"

	"github.com/goccy/go-json"
)

var ErrMalformedOutput = errors.New("malformed classifier output")

type generativeOutput struct {
	Priority         *float64        `json:"priority"`
	Category         *string         `json:"category"`
	RequiresResponse *bool           `json:"requiresResponse"`
	ConfidenceScore  *float64        `json:"confidenceScore"`
	Keywords         *[]string       `json:"keywords"`
	ActionItems      json.RawMessage `json:"actionItems"`
}

// ParseGenerativeOutput decodes the classifier's JSON reply. Every key except
// actionItems is required; actionItems may be absent, null or a string.
func ParseGenerativeOutput(text string) (*domain.ClassificationResult, error) {
	body := extractJSONObject(text)
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON object", ErrMalformedOutput)
	}

	var out generativeOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	switch {
	case out.Priority == nil:
		return nil, fmt.Errorf("%w: missing priority", ErrMalformedOutput)
	case out.Category == nil:
		return nil, fmt.Errorf("%w: missing category", ErrMalformedOutput)
	case out.RequiresResponse == nil:
		return nil, fmt.Errorf("%w: missing requiresResponse", ErrMalformedOutput)
	case out.ConfidenceScore == nil:
		return nil, fmt.Errorf("%w: missing confidenceScore", ErrMalformedOutput)
	case out.Keywords == nil:
		return nil, fmt.Errorf("%w: missing keywords", ErrMalformedOutput)
	}

	p := *out.Priority
	if p != math.Trunc(p) || p < 0 || p > 3 {
		return nil, fmt.Errorf("%w: priority %v", ErrMalformedOutput, p)
	}
	category, err := domain.ParseCategory(*out.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	conf := *out.ConfidenceScore
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return nil, fmt.Errorf("%w: confidenceScore %v", ErrMalformedOutput, conf)
	}

	actionItems, err := decodeActionItems(out.ActionItems)
	if err != nil {
		return nil, err
	}

	return &domain.ClassificationResult{
		Priority:         domain.Priority(int(p)),
		Category:         category,
		RequiresResponse: *out.RequiresResponse,
		Confidence:       conf,
		Keywords:         cleanKeywords(*out.Keywords),
		ActionItems:      actionItems,
	}, nil
}

func decodeActionItems(raw json.RawMessage) (*string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: actionItems must be a string or null", ErrMalformedOutput)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// extractJSONObject strips markdown fences and returns the outermost object.
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
