package classification

import (
	"strings"

	"intel_server/core/domain"
)

// Combine merges the embedding consensus (may be nil) with the generative
// result. Consensus priority and category win only when its confidence is
// strictly above threshold.
func Combine(consensus *domain.ClassificationResult, generative domain.ClassificationResult, threshold float64) domain.ClassificationResult {
	result := domain.ClassificationResult{
		Priority:         generative.Priority,
		Category:         generative.Category,
		RequiresResponse: generative.RequiresResponse,
		Confidence:       generative.Confidence,
		ActionItems:      generative.ActionItems,
	}

	if consensus == nil {
		result.Keywords = unionKeywords(nil, generative.Keywords)
		return result
	}

	if consensus.Confidence > threshold {
		result.Priority = consensus.Priority
		result.Category = consensus.Category
	}
	result.RequiresResponse = consensus.RequiresResponse || generative.RequiresResponse
	result.Confidence = (consensus.Confidence + generative.Confidence) / 2
	result.Keywords = unionKeywords(consensus.Keywords, generative.Keywords)
	return result
}

// unionKeywords deduplicates case-insensitively, keeping first occurrences.
func unionKeywords(first, second []string) []string {
	seen := make(map[string]bool, len(first)+len(second))
	out := make([]string, 0, len(first)+len(second))
	for _, list := range [][]string{first, second} {
		for _, kw := range list {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, kw)
		}
	}
	return out
}
