package classification

import (
	"strings"

	"intel_server/core/domain"
)

const (
	fallbackConfidence  = 0.5
	fallbackActionItems = "Check if response is needed"
)

var (
	urgencyMarkers   = []string{"urgent", "asap", "immediately", "deadline", "important"}
	lowMarkers       = []string{"fyi", "newsletter"}
	// a question or an explicit demand for action both call for a reply
	responseMarkers  = []string{"?", "question", "required", "please respond", "please reply", "please confirm"}
	meetingMarkers   = []string{"meeting", "calendar"}
	supportMarkers   = []string{"support", "help"}
	marketingMarkers = []string{"marketing", "newsletter"}

	fallbackVocabulary = []string{"meeting", "deadline", "urgent", "question", "support", "help", "important"}
)

// Fallback classifies with fixed keyword rules when the generative path yields nothing.
func Fallback(subject, body string) domain.ClassificationResult {
	text := strings.ToLower(subject + " " + body)

	priority := domain.PriorityMedium
	switch {
	case containsAny(text, urgencyMarkers):
		priority = domain.PriorityHigh
	case containsAny(text, lowMarkers):
		priority = domain.PriorityLow
	}

	category := domain.CategoryInformational
	requiresResponse := false
	switch {
	case containsAny(text, responseMarkers):
		category = domain.CategoryRequiresResponse
		requiresResponse = true
	case containsAny(text, meetingMarkers):
		category = domain.CategoryMeeting
	case containsAny(text, supportMarkers):
		category = domain.CategorySupport
	case containsAny(text, marketingMarkers):
		category = domain.CategoryMarketing
	}

	keywords := make([]string, 0)
	for _, w := range fallbackVocabulary {
		if strings.Contains(text, w) {
			keywords = append(keywords, w)
		}
	}

	var actionItems *string
	if requiresResponse {
		s := fallbackActionItems
		actionItems = &s
	}

	return domain.ClassificationResult{
		Priority:         priority,
		Category:         category,
		RequiresResponse: requiresResponse,
		Confidence:       fallbackConfidence,
		Keywords:         keywords,
		ActionItems:      actionItems,
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
