package classification

import (
	"testing"

	"intel_server/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerativeOutput(t *testing.T) {
	raw := "```json\n" + `{
  "priority": 2,
  "category": "Meeting",
  "requiresResponse": true,
  "confidenceScore": 0.82,
  "keywords": ["sync", " agenda ", ""],
  "actionItems": "Confirm attendance"
}` + "\n```"

	got, err := ParseGenerativeOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, domain.CategoryMeeting, got.Category)
	assert.True(t, got.RequiresResponse)
	assert.Equal(t, 0.82, got.Confidence)
	assert.Equal(t, []string{"sync", "agenda"}, got.Keywords)
	require.NotNil(t, got.ActionItems)
	assert.Equal(t, "Confirm attendance", *got.ActionItems)
}

func TestParseGenerativeOutputActionItemsOptional(t *testing.T) {
	for _, raw := range []string{
		`{"priority":0,"category":"Newsletter","requiresResponse":false,"confidenceScore":0.4,"keywords":[],"actionItems":null}`,
		`{"priority":0,"category":"Newsletter","requiresResponse":false,"confidenceScore":0.4,"keywords":[]}`,
	} {
		got, err := ParseGenerativeOutput(raw)
		require.NoError(t, err)
		assert.Nil(t, got.ActionItems)
	}
}

func TestParseGenerativeOutputRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "I think this is urgent"},
		{"truncated", `{"priority": 2, "category": "Meeting"`},
		{"missing priority", `{"category":"Meeting","requiresResponse":true,"confidenceScore":0.8,"keywords":[]}`},
		{"missing category", `{"priority":1,"requiresResponse":true,"confidenceScore":0.8,"keywords":[]}`},
		{"missing requiresResponse", `{"priority":1,"category":"Meeting","confidenceScore":0.8,"keywords":[]}`},
		{"missing confidence", `{"priority":1,"category":"Meeting","requiresResponse":true,"keywords":[]}`},
		{"missing keywords", `{"priority":1,"category":"Meeting","requiresResponse":true,"confidenceScore":0.8}`},
		{"null keywords", `{"priority":1,"category":"Meeting","requiresResponse":true,"confidenceScore":0.8,"keywords":null}`},
		{"priority out of range", `{"priority":4,"category":"Meeting","requiresResponse":true,"confidenceScore":0.8,"keywords":[]}`},
		{"fractional priority", `{"priority":1.5,"category":"Meeting","requiresResponse":true,"confidenceScore":0.8,"keywords":[]}`},
		{"priority as string", `{"priority":"high","category":"Meeting","requiresResponse":true,"confidenceScore":0.8,"keywords":[]}`},
		{"unknown category", `{"priority":1,"category":"Gossip","requiresResponse":true,"confidenceScore":0.8,"keywords":[]}`},
		{"confidence above one", `{"priority":1,"category":"Meeting","requiresResponse":true,"confidenceScore":1.3,"keywords":[]}`},
		{"requiresResponse as string", `{"priority":1,"category":"Meeting","requiresResponse":"yes","confidenceScore":0.8,"keywords":[]}`},
		{"actionItems as list", `{"priority":1,"category":"Meeting","requiresResponse":true,"confidenceScore":0.8,"keywords":[],"actionItems":["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGenerativeOutput(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}
