package memory

import (
	"context"
	"testing"

	"intel_server/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingRepositoryReturnsDetachedCopies(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name   string
		mutate func(t *testing.T, repo *EmbeddingRepository, rec *domain.EmbeddingRecord)
	}{
		{
			name: "listed record",
			mutate: func(t *testing.T, repo *EmbeddingRepository, rec *domain.EmbeddingRecord) {
				listed, err := repo.ListByOwner(ctx, owner, "")
				require.NoError(t, err)
				require.Len(t, listed, 1)
				listed[0].Vector[0] = 99
				listed[0].Metadata["email_id"] = "changed"
			},
		},
		{
			name: "fetched record",
			mutate: func(t *testing.T, repo *EmbeddingRepository, rec *domain.EmbeddingRecord) {
				got, err := repo.GetByID(ctx, owner, rec.ID)
				require.NoError(t, err)
				require.NotNil(t, got)
				got.Vector[0] = 99
				got.Metadata["email_id"] = "changed"
			},
		},
		{
			name: "saved record",
			mutate: func(t *testing.T, repo *EmbeddingRepository, rec *domain.EmbeddingRecord) {
				rec.Vector[0] = 99
				rec.Metadata["email_id"] = "changed"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewEmbeddingRepository()
			rec := domain.NewEmbeddingRecord(owner, "email", "hello", []float32{1, 2, 3}, map[string]any{"email_id": "e-1"})
			require.NoError(t, repo.Save(ctx, rec))

			tt.mutate(t, repo, rec)

			listed, err := repo.ListByOwner(ctx, owner, "")
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, []float32{1, 2, 3}, listed[0].Vector)
			assert.Equal(t, "e-1", listed[0].Metadata["email_id"])
		})
	}
}

func TestEmbeddingRepositoryListFiltersOwnerAndType(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	repo := NewEmbeddingRepository()

	require.NoError(t, repo.Save(ctx, domain.NewEmbeddingRecord(owner, "email", "a", []float32{1}, nil)))
	require.NoError(t, repo.Save(ctx, domain.NewEmbeddingRecord(owner, "reply", "b", []float32{1}, nil)))
	require.NoError(t, repo.Save(ctx, domain.NewEmbeddingRecord(uuid.New(), "email", "c", []float32{1}, nil)))

	tests := []struct {
		name        string
		contentType string
		want        int
	}{
		{"all types", "", 2},
		{"email only", "email", 1},
		{"unknown type", "note", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListByOwner(ctx, owner, tt.contentType)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
