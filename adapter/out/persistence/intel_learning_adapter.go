package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"intel_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// =============================================================================
// Learning Pattern Adapter
// =============================================================================

// PatternAdapter implements out.PatternRepository.
type PatternAdapter struct {
	db *sqlx.DB
}

func NewPatternAdapter(db *sqlx.DB) *PatternAdapter {
	return &PatternAdapter{db: db}
}

type patternRow struct {
	ID                 uuid.UUID       `db:"id"`
	OwnerID            uuid.UUID       `db:"owner_id"`
	PatternType        string          `db:"pattern_type"`
	OriginalText       string          `db:"original_text"`
	ModifiedText       string          `db:"modified_text"`
	SemanticDifference pq.Float64Array `db:"semantic_difference"`
	Context            []byte          `db:"context"`
	Confidence         float64         `db:"confidence"`
	UsageCount         int             `db:"usage_count"`
	LastUsedAt         time.Time       `db:"last_used_at"`
	CreatedAt          time.Time       `db:"created_at"`
}

func (r *patternRow) toEntity() (*domain.LearningPattern, error) {
	scope, err := decodeJSONMap(r.Context)
	if err != nil {
		return nil, err
	}
	var diff []float32
	if r.SemanticDifference != nil {
		diff = make([]float32, len(r.SemanticDifference))
		for i, f := range r.SemanticDifference {
			diff[i] = float32(f)
		}
	}
	return domain.RestoreLearningPattern(domain.LearningPattern{
		ID:                 r.ID,
		OwnerID:            r.OwnerID,
		PatternType:        domain.PatternType(r.PatternType),
		OriginalText:       r.OriginalText,
		ModifiedText:       r.ModifiedText,
		SemanticDifference: diff,
		Context:            scope,
		CreatedAt:          r.CreatedAt,
	}, r.Confidence, r.UsageCount, r.LastUsedAt), nil
}

func float64s(v []float32) pq.Float64Array {
	if v == nil {
		return nil
	}
	out := make(pq.Float64Array, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Save inserts the pattern or updates its mutable counters.
func (a *PatternAdapter) Save(ctx context.Context, p *domain.LearningPattern) error {
	scope, err := encodeJSONMap(p.Context)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO learning_patterns (id, owner_id, pattern_type, original_text, modified_text,
			semantic_difference, context, confidence, usage_count, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			usage_count = EXCLUDED.usage_count,
			last_used_at = EXCLUDED.last_used_at`

	_, err = a.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, string(p.PatternType), p.OriginalText, p.ModifiedText,
		float64s(p.SemanticDifference), scope, p.Confidence(), p.UsageCount(), p.LastUsedAt(), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save learning pattern: %w", err)
	}
	return nil
}

func (a *PatternAdapter) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.LearningPattern, error) {
	var row patternRow
	query := `SELECT * FROM learning_patterns WHERE id = $1 AND owner_id = $2`

	if err := a.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get learning pattern: %w", err)
	}
	return row.toEntity()
}

func (a *PatternAdapter) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.LearningPattern, error) {
	var rows []patternRow
	query := `SELECT * FROM learning_patterns WHERE owner_id = $1 ORDER BY confidence DESC, usage_count DESC`

	if err := a.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list learning patterns: %w", err)
	}

	patterns := make([]*domain.LearningPattern, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func (a *PatternAdapter) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM learning_patterns WHERE id = $1 AND owner_id = $2`

	if _, err := a.db.ExecContext(ctx, query, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete learning pattern: %w", err)
	}
	return nil
}

// =============================================================================
// Tone Profile Adapter
// =============================================================================

// ToneProfileAdapter implements out.ToneProfileRepository.
type ToneProfileAdapter struct {
	db *sqlx.DB
}

func NewToneProfileAdapter(db *sqlx.DB) *ToneProfileAdapter {
	return &ToneProfileAdapter{db: db}
}

type toneProfileRow struct {
	ID               uuid.UUID      `db:"id"`
	OwnerID          uuid.UUID      `db:"owner_id"`
	Characteristics  string         `db:"characteristics"`
	Style            string         `db:"style"`
	PreferredPhrases pq.StringArray `db:"preferred_phrases"`
	AvoidedPhrases   pq.StringArray `db:"avoided_phrases"`
	Confidence       float64        `db:"confidence"`
	SampleCount      int            `db:"sample_count"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *toneProfileRow) toEntity() *domain.ToneProfile {
	return domain.RestoreToneProfile(domain.ToneProfile{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Characteristics:  r.Characteristics,
		PreferredPhrases: []string(r.PreferredPhrases),
		AvoidedPhrases:   []string(r.AvoidedPhrases),
		Style:            domain.ToneStyle(r.Style),
		CreatedAt:        r.CreatedAt,
	}, r.Confidence, r.SampleCount, r.UpdatedAt)
}

func (a *ToneProfileAdapter) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error) {
	var row toneProfileRow
	query := `SELECT * FROM tone_profiles WHERE owner_id = $1`

	if err := a.db.GetContext(ctx, &row, query, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tone profile: %w", err)
	}
	return row.toEntity(), nil
}

// Save upserts the owner's single profile.
func (a *ToneProfileAdapter) Save(ctx context.Context, p *domain.ToneProfile) error {
	query := `
		INSERT INTO tone_profiles (id, owner_id, characteristics, style, preferred_phrases, avoided_phrases,
			confidence, sample_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id) DO UPDATE SET
			characteristics = EXCLUDED.characteristics,
			style = EXCLUDED.style,
			preferred_phrases = EXCLUDED.preferred_phrases,
			avoided_phrases = EXCLUDED.avoided_phrases,
			confidence = EXCLUDED.confidence,
			sample_count = EXCLUDED.sample_count,
			updated_at = EXCLUDED.updated_at`

	_, err := a.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.Characteristics, string(p.Style),
		pq.Array(p.PreferredPhrases), pq.Array(p.AvoidedPhrases),
		p.Confidence(), p.SampleCount(), p.CreatedAt, p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save tone profile: %w", err)
	}
	return nil
}
