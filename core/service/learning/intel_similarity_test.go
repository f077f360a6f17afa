package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "please send the report", "please send the report", 1.0},
		{"case and spacing", "Send  THE report", "send the\treport", 1.0},
		{"half overlap", "a b c", "b c d", 0.5},
		{"disjoint", "alpha beta", "gamma", 0.0},
		{"both empty", "", "   ", 0.0},
		{"one empty", "hello", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-9)
			assert.Equal(t, Jaccard(tt.a, tt.b), Jaccard(tt.b, tt.a), "Jaccard must be symmetric")
		})
	}
}

func TestContextCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"both empty", map[string]any{}, nil, true},
		{"one empty", map[string]any{"category": "Meeting"}, nil, false},
		{"same keys", map[string]any{"category": 1, "priority": 2}, map[string]any{"priority": 0, "category": 0}, true},
		{"two of three", map[string]any{"category": 1, "priority": 2, "edit_tags": 3}, map[string]any{"category": 1, "priority": 2}, true},
		{"exactly half", map[string]any{"category": 1, "priority": 2}, map[string]any{"category": 1, "sender": 2}, false},
		{"disjoint", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextCompatible(tt.a, tt.b))
			assert.Equal(t, tt.want, ContextCompatible(tt.b, tt.a))
		})
	}
}
