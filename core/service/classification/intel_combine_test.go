package classification

import (
	"testing"

	"intel_server/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	items := "Reply today"
	generative := domain.ClassificationResult{
		Priority:    domain.PriorityLow,
		Category:    domain.CategoryNewsletter,
		Confidence:  0.6,
		Keywords:    []string{"Offer", "sale"},
		ActionItems: &items,
	}

	tests := []struct {
		name         string
		consensus    *domain.ClassificationResult
		wantPriority domain.Priority
		wantCategory domain.Category
		wantConf     float64
		wantResponse bool
		wantKeywords []string
	}{
		{
			name:         "no consensus",
			consensus:    nil,
			wantPriority: domain.PriorityLow,
			wantCategory: domain.CategoryNewsletter,
			wantConf:     0.6,
			wantKeywords: []string{"Offer", "sale"},
		},
		{
			name: "consensus exactly at threshold loses",
			consensus: &domain.ClassificationResult{
				Priority: domain.PriorityHigh, Category: domain.CategoryInternal,
				Confidence: 0.8, RequiresResponse: true, Keywords: []string{"offer"},
			},
			wantPriority: domain.PriorityLow,
			wantCategory: domain.CategoryNewsletter,
			wantConf:     0.7,
			wantResponse: true,
			wantKeywords: []string{"offer", "sale"},
		},
		{
			name: "consensus above threshold wins",
			consensus: &domain.ClassificationResult{
				Priority: domain.PriorityHigh, Category: domain.CategoryInternal,
				Confidence: 0.9, Keywords: []string{"budget"},
			},
			wantPriority: domain.PriorityHigh,
			wantCategory: domain.CategoryInternal,
			wantConf:     0.75,
			wantKeywords: []string{"budget", "Offer", "sale"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combine(tt.consensus, generative, 0.8)
			assert.Equal(t, tt.wantPriority, got.Priority)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantResponse, got.RequiresResponse)
			assert.Equal(t, tt.wantKeywords, got.Keywords)
			assert.Equal(t, &items, got.ActionItems)
		})
	}
}
