package learning

import (
	"regexp"
	"strings"

	"intel_server/core/domain"
)

var (
	formalMarkers = regexp.MustCompile(`(?i)\b(dear|sincerely|best regards)\b`)
	casualMarkers = regexp.MustCompile(`(?i)\b(hi|thanks|cheers)\b`)
	sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)
)

var greetingPatterns = []string{
	"dear", "hi", "hello", "hey", "good morning", "good afternoon", "good evening",
}

var closingPatterns = []string{
	"best regards", "kind regards", "warm regards", "regards", "sincerely",
	"thanks", "thank you", "best", "cheers", "yours",
}

var formalityWords = []string{
	"respectfully", "sincerely", "regards", "dear", "please",
	"kindly", "would", "could", "appreciate", "regarding",
}

var informalityWords = []string{
	"hey", "hi", "yeah", "gonna", "wanna", "thanks", "cool", "awesome", "ok", "!",
}

// DetectStyle classifies texts as formal, casual or professional. Formal
// markers take precedence when both kinds appear.
func DetectStyle(texts []string) domain.ToneStyle {
	casual := false
	for _, t := range texts {
		if formalMarkers.MatchString(t) {
			return domain.ToneFormal
		}
		if casualMarkers.MatchString(t) {
			casual = true
		}
	}
	if casual {
		return domain.ToneCasual
	}
	return domain.ToneProfessional
}

// greetingLines returns the greeting lines among the first three non-empty lines.
func greetingLines(text string) []string {
	var out []string
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if seen++; seen > 3 {
			break
		}
		if hasWordPrefix(strings.ToLower(line), greetingPatterns) {
			out = append(out, line)
		}
	}
	return out
}

// closingLines returns the closing lines among the last five lines.
func closingLines(text string) []string {
	lines := strings.Split(text, "\n")
	start := len(lines) - 5
	if start < 0 {
		start = 0
	}
	var out []string
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if hasWordPrefix(strings.ToLower(line), closingPatterns) {
			out = append(out, line)
		}
	}
	return out
}

func hasWordPrefix(lower string, patterns []string) bool {
	for _, p := range patterns {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		rest := lower[len(p):]
		if rest == "" || !isLetter(rest[0]) {
			return true
		}
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func signatureLines(text string) []string {
	return append(greetingLines(text), closingLines(text)...)
}

func averageSentenceLength(texts []string) float64 {
	sentences, words := 0, 0
	for _, t := range texts {
		for _, s := range sentenceSplit.Split(t, -1) {
			if s = strings.TrimSpace(s); s != "" {
				sentences++
				words += len(strings.Fields(s))
			}
		}
	}
	if sentences == 0 {
		return 0
	}
	return float64(words) / float64(sentences)
}

func formalityScore(texts []string) float64 {
	if len(texts) == 0 {
		return 0.5
	}
	total := 0.0
	for _, t := range texts {
		lower := strings.ToLower(t)
		score := 0.5
		for _, w := range formalityWords {
			if strings.Contains(lower, w) {
				score += 0.05
			}
		}
		for _, w := range informalityWords {
			if strings.Contains(lower, w) {
				score -= 0.05
			}
		}
		total += clamp(score, 0, 1)
	}
	return total / float64(len(texts))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
