package classification

import (
	"math"
	"sort"
	"strings"

	"intel_server/core/domain"
)

const (
	consensusConfidenceBoost = 0.1
	consensusConfidenceCap   = 0.9
)

// candidate is a similar historical message whose classification could be decoded.
type candidate struct {
	record         *domain.EmbeddingRecord
	similarity     float64
	classification domain.ClassificationResult
}

// decodeCandidates keeps the neighbours carrying a readable classification,
// most similar first.
func decodeCandidates(scored []domain.ScoredRecord) []candidate {
	out := make([]candidate, 0, len(scored))
	for _, s := range scored {
		if s.Record == nil {
			continue
		}
		meta, err := domain.DecodeClassificationMetadata(s.Record.Metadata)
		if err != nil {
			continue
		}
		out = append(out, candidate{record: s.Record, similarity: s.Similarity, classification: meta.Classification})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].similarity > out[j].similarity })
	return out
}

// roundHalfUp rounds to the nearest integer with halves going up, so 1.5 becomes 2.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Consensus votes over the candidates. It returns nil when there are none.
func Consensus(candidates []candidate) *domain.ClassificationResult {
	if len(candidates) == 0 {
		return nil
	}

	var (
		weighted, simSum, plainSum, confSum float64
		requiresResponse                    bool
		keywordOrder                        []string
	)
	categoryCount := make(map[domain.Category]int)
	keywordCount := make(map[string]int)
	keywordForm := make(map[string]string)

	for _, c := range candidates {
		p := float64(c.classification.Priority)
		weighted += p * c.similarity
		simSum += c.similarity
		plainSum += p
		confSum += c.classification.Confidence
		requiresResponse = requiresResponse || c.classification.RequiresResponse
		categoryCount[c.classification.Category]++

		seen := make(map[string]bool)
		for _, kw := range c.classification.Keywords {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := keywordForm[key]; !ok {
				keywordForm[key] = strings.TrimSpace(kw)
				keywordOrder = append(keywordOrder, key)
			}
			keywordCount[key]++
		}
	}

	var avgPriority float64
	if simSum > 0 {
		avgPriority = weighted / simSum
	} else {
		avgPriority = plainSum / float64(len(candidates))
	}

	keywords := make([]string, 0)
	for _, key := range keywordOrder {
		if keywordCount[key] > 1 {
			keywords = append(keywords, keywordForm[key])
		}
	}

	return &domain.ClassificationResult{
		Priority:         domain.ClampPriority(roundHalfUp(avgPriority)),
		Category:         majorityCategory(candidates, categoryCount),
		RequiresResponse: requiresResponse,
		Confidence:       math.Min(consensusConfidenceCap, confSum/float64(len(candidates))+consensusConfidenceBoost),
		Keywords:         keywords,
	}
}

// majorityCategory picks the most frequent category. On a tie the category
// of the most similar candidate among the tied ones wins.
func majorityCategory(candidates []candidate, counts map[domain.Category]int) domain.Category {
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	for _, c := range candidates {
		if counts[c.classification.Category] == best {
			return c.classification.Category
		}
	}
	return domain.CategoryInformational
}
