package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationMetadataDecode(t *testing.T) {
	items := "Reply by Friday"
	result := ClassificationResult{
		Priority:         PriorityHigh,
		Category:         CategoryMeeting,
		RequiresResponse: true,
		Confidence:       0.75,
		Keywords:         []string{"meeting", "deadline"},
		ActionItems:      &items,
	}

	meta, err := NewClassificationMetadata(result, "msg-1", "alice@example.com").ToMap()
	require.NoError(t, err)
	assert.EqualValues(t, ClassificationSchemaVersion, meta[MetaSchemaVersion])

	decoded, err := DecodeClassificationMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, result, decoded.Classification)
	assert.Equal(t, "alice@example.com", decoded.Sender)
}

func TestDecodeClassificationMetadataRejects(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want error
	}{
		{"nil", nil, ErrNoClassification},
		{"no classification key", map[string]any{"source": "manual"}, ErrNoClassification},
		{"future schema", map[string]any{
			MetaSchemaVersion:  2,
			MetaClassification: map[string]any{"priority": 1, "category": "Meeting", "confidence": 0.5},
		}, ErrUnsupportedSchema},
		{"unknown category", map[string]any{
			MetaSchemaVersion:  1,
			MetaClassification: map[string]any{"priority": 1, "category": "Gossip", "confidence": 0.5},
		}, ErrInvalidClassification},
		{"wrong shape", map[string]any{
			MetaSchemaVersion:  1,
			MetaClassification: "high",
		}, ErrInvalidClassification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeClassificationMetadata(tt.meta)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseCategoryIsCaseInsensitive(t *testing.T) {
	c, err := ParseCategory("requiresresponse")
	require.NoError(t, err)
	assert.Equal(t, CategoryRequiresResponse, c)

	_, err = ParseCategory("Gossip")
	assert.Error(t, err)
}

func TestClampPriority(t *testing.T) {
	assert.Equal(t, PriorityLow, ClampPriority(-2))
	assert.Equal(t, PriorityHigh, ClampPriority(2))
	assert.Equal(t, PriorityCritical, ClampPriority(9))
}
