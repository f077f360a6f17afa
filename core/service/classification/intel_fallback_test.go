package classification

import (
	"testing"

	"intel_server/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	certificateSubject = "URGENT: Security Certificate Renewal Required"
	certificateBody    = "IMMEDIATE ACTION REQUIRED: Your security certificate expires in 3 days. " +
		"Please complete the renewal process by logging into the security portal and following the " +
		"certificate renewal wizard. Failure to renew will result in system access being revoked."
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name         string
		subject      string
		body         string
		wantPriority domain.Priority
		wantCategory domain.Category
		wantResponse bool
		wantKeywords []string
	}{
		{
			name:         "certificate renewal",
			subject:      certificateSubject,
			body:         certificateBody,
			wantPriority: domain.PriorityHigh,
			wantCategory: domain.CategoryRequiresResponse,
			wantResponse: true,
			wantKeywords: []string{"urgent"},
		},
		{
			name:         "certificate renewal short body",
			subject:      certificateSubject,
			body:         "Your certificate expires in 3 days.",
			wantPriority: domain.PriorityHigh,
			wantCategory: domain.CategoryRequiresResponse,
			wantResponse: true,
			wantKeywords: []string{"urgent"},
		},
		{
			name:         "question",
			subject:      "Lunch plans",
			body:         "Are you free on Friday?",
			wantPriority: domain.PriorityMedium,
			wantCategory: domain.CategoryRequiresResponse,
			wantResponse: true,
			wantKeywords: []string{},
		},
		{
			name:         "meeting invite",
			subject:      "Team meeting moved",
			body:         "See the calendar entry.",
			wantPriority: domain.PriorityMedium,
			wantCategory: domain.CategoryMeeting,
			wantKeywords: []string{"meeting"},
		},
		{
			name:         "newsletter",
			subject:      "Monthly newsletter",
			body:         "Our latest marketing picks.",
			wantPriority: domain.PriorityLow,
			wantCategory: domain.CategoryMarketing,
			wantKeywords: []string{},
		},
		{
			name:         "support ticket",
			subject:      "Need help with login",
			body:         "The deadline is close.",
			wantPriority: domain.PriorityHigh,
			wantCategory: domain.CategorySupport,
			wantKeywords: []string{"deadline", "help"},
		},
		{
			name:         "plain note",
			subject:      "Lunch",
			body:         "Pizza is in the kitchen.",
			wantPriority: domain.PriorityMedium,
			wantCategory: domain.CategoryInformational,
			wantKeywords: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.subject, tt.body)
			assert.Equal(t, tt.wantPriority, got.Priority)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantResponse, got.RequiresResponse)
			assert.Equal(t, 0.5, got.Confidence)
			assert.Equal(t, tt.wantKeywords, got.Keywords)
			if tt.wantResponse {
				require.NotNil(t, got.ActionItems)
				assert.Equal(t, "Check if response is needed", *got.ActionItems)
			} else {
				assert.Nil(t, got.ActionItems)
			}
		})
	}
}
