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
// Email Draft Adapter
// =============================================================================

// DraftAdapter implements out.DraftRepository.
type DraftAdapter struct {
	db *sqlx.DB
}

func NewDraftAdapter(db *sqlx.DB) *DraftAdapter {
	return &DraftAdapter{db: db}
}

type draftRow struct {
	ID               uuid.UUID      `db:"id"`
	OwnerID          uuid.UUID      `db:"owner_id"`
	ProcessedEmailID uuid.UUID      `db:"processed_email_id"`
	Subject          string         `db:"subject"`
	GeneratedContent string         `db:"generated_content"`
	Content          string         `db:"content"`
	Status           string         `db:"status"`
	Confidence       float64        `db:"confidence"`
	QualityScore     float64        `db:"quality_score"`
	Model            string         `db:"model"`
	EditCount        int            `db:"edit_count"`
	EditTypes        pq.StringArray `db:"edit_types"`
	Learned          bool           `db:"learned"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	SentAt           sql.NullTime   `db:"sent_at"`
}

func (r *draftRow) toEntity() *domain.EmailDraft {
	d := &domain.EmailDraft{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		ProcessedEmailID: r.ProcessedEmailID,
		Subject:          r.Subject,
		GeneratedContent: r.GeneratedContent,
		Content:          r.Content,
		Status:           domain.DraftStatus(r.Status),
		Confidence:       r.Confidence,
		QualityScore:     r.QualityScore,
		Model:            r.Model,
		EditCount:        r.EditCount,
		EditTypes:        []string(r.EditTypes),
		Learned:          r.Learned,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if d.EditTypes == nil {
		d.EditTypes = []string{}
	}
	if r.SentAt.Valid {
		d.SentAt = &r.SentAt.Time
	}
	return d
}

// Save inserts or fully rewrites a draft.
func (a *DraftAdapter) Save(ctx context.Context, d *domain.EmailDraft) error {
	var sentAt sql.NullTime
	if d.SentAt != nil {
		sentAt = sql.NullTime{Time: *d.SentAt, Valid: true}
	}
	query := `
		INSERT INTO email_drafts (id, owner_id, processed_email_id, subject, generated_content, content, status,
			confidence, quality_score, model, edit_count, edit_types, learned, created_at, updated_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			edit_count = EXCLUDED.edit_count,
			edit_types = EXCLUDED.edit_types,
			learned = EXCLUDED.learned,
			updated_at = EXCLUDED.updated_at,
			sent_at = EXCLUDED.sent_at`

	_, err := a.db.ExecContext(ctx, query,
		d.ID, d.OwnerID, d.ProcessedEmailID, d.Subject, d.GeneratedContent, d.Content, string(d.Status),
		d.Confidence, d.QualityScore, d.Model, d.EditCount, pq.Array(d.EditTypes), d.Learned,
		d.CreatedAt, d.UpdatedAt, sentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (a *DraftAdapter) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.EmailDraft, error) {
	var row draftRow
	query := `SELECT * FROM email_drafts WHERE id = $1 AND owner_id = $2`

	if err := a.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return row.toEntity(), nil
}

// ListUnlearnedEdits returns edited drafts not yet folded into the tone profile, oldest first.
func (a *DraftAdapter) ListUnlearnedEdits(ctx context.Context, ownerID uuid.UUID) ([]*domain.EmailDraft, error) {
	var rows []draftRow
	query := `SELECT * FROM email_drafts
		WHERE owner_id = $1 AND edit_count > 0 AND learned = FALSE
		ORDER BY updated_at ASC`

	if err := a.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list unlearned drafts: %w", err)
	}

	drafts := make([]*domain.EmailDraft, len(rows))
	for i := range rows {
		drafts[i] = rows[i].toEntity()
	}
	return drafts, nil
}

// MarkLearned flags drafts whose updated_at still matches the value read.
func (a *DraftAdapter) MarkLearned(ctx context.Context, ownerID uuid.UUID, drafts []*domain.EmailDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE email_drafts SET learned = TRUE WHERE id = $1 AND owner_id = $2 AND updated_at = $3 AND learned = FALSE`

	marked := 0
	for _, d := range drafts {
		result, err := tx.ExecContext(ctx, query, d.ID, ownerID, d.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to mark draft learned: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		marked += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return marked, nil
}
