package mongodb

import (
	"strings"
	"testing"
	"time"

	"intel_server/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func sampleEmail(body string) *domain.ProcessedEmail {
	action := "Reply with numbers"
	e := domain.NewProcessedEmail(uuid.New(), "msg-1", "Q3", "cfo@example.com", []string{"me@example.com"}, body,
		time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), domain.ClassificationResult{
			Priority:         domain.PriorityHigh,
			Category:         domain.CategoryRequiresResponse,
			RequiresResponse: true,
			Confidence:       0.8,
			Keywords:         []string{"q3"},
			ActionItems:      &action,
		})
	e.CorrectPriority(domain.PriorityCritical)
	return e
}

func TestDocumentRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		compressed bool
	}{
		{"short body stays plain", "See attached.", false},
		{"long body is compressed", strings.Repeat("numbers ", 400), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sampleEmail(tt.body)

			doc, err := toDocument(e)
			require.NoError(t, err)
			assert.Equal(t, tt.compressed, doc.IsCompressed)

			back, err := doc.toEntity()
			require.NoError(t, err)
			assert.Equal(t, e.ID, back.ID)
			assert.Equal(t, e.OwnerID, back.OwnerID)
			assert.Equal(t, tt.body, back.Body)
			assert.Equal(t, domain.PriorityCritical, back.Classification.Priority)
			assert.Equal(t, "Reply with numbers", *back.Classification.ActionItems)
			require.Len(t, back.Corrections, 1)
			assert.Equal(t, "high", back.Corrections[0].From)
		})
	}
}

func TestToEntityRejectsBadIDs(t *testing.T) {
	_, err := (&processedEmailDocument{ID: "nope", OwnerID: uuid.NewString()}).toEntity()
	assert.Error(t, err)
}

func TestListQuery(t *testing.T) {
	owner := uuid.New()
	high := domain.PriorityHigh
	meeting := domain.CategoryMeeting
	yes := true

	assert.Equal(t, bson.M{"owner_id": owner.String()}, listQuery(owner, domain.EmailFilter{}))
	assert.Equal(t, bson.M{
		"owner_id":                         owner.String(),
		"classification.priority":          2,
		"classification.category":          "Meeting",
		"classification.requires_response": true,
	}, listQuery(owner, domain.EmailFilter{Priority: &high, Category: &meeting, RequiresResponse: &yes}))
}
