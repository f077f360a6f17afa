package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the tables used by the Postgres adapters. Statements are
// idempotent so it can run on every start.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS embeddings (
	id           UUID PRIMARY KEY,
	owner_id     UUID NOT NULL,
	content_type TEXT NOT NULL,
	content      TEXT NOT NULL,
	embedding    vector NOT NULL,
	metadata     JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embeddings_owner_type ON embeddings (owner_id, content_type);

CREATE TABLE IF NOT EXISTS learning_patterns (
	id                  UUID PRIMARY KEY,
	owner_id            UUID NOT NULL,
	pattern_type        TEXT NOT NULL,
	original_text       TEXT NOT NULL,
	modified_text       TEXT NOT NULL,
	semantic_difference DOUBLE PRECISION[],
	context             JSONB NOT NULL DEFAULT '{}',
	confidence          DOUBLE PRECISION NOT NULL,
	usage_count         INTEGER NOT NULL,
	last_used_at        TIMESTAMPTZ NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learning_patterns_owner ON learning_patterns (owner_id);

CREATE TABLE IF NOT EXISTS tone_profiles (
	id                UUID PRIMARY KEY,
	owner_id          UUID NOT NULL UNIQUE,
	characteristics   TEXT NOT NULL,
	style             TEXT NOT NULL,
	preferred_phrases TEXT[] NOT NULL DEFAULT '{}',
	avoided_phrases   TEXT[] NOT NULL DEFAULT '{}',
	confidence        DOUBLE PRECISION NOT NULL,
	sample_count      INTEGER NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS email_drafts (
	id                 UUID PRIMARY KEY,
	owner_id           UUID NOT NULL,
	processed_email_id UUID NOT NULL,
	subject            TEXT NOT NULL,
	generated_content  TEXT NOT NULL,
	content            TEXT NOT NULL,
	status             TEXT NOT NULL,
	confidence         DOUBLE PRECISION NOT NULL,
	quality_score      DOUBLE PRECISION NOT NULL,
	model              TEXT NOT NULL,
	edit_count         INTEGER NOT NULL DEFAULT 0,
	edit_types         TEXT[] NOT NULL DEFAULT '{}',
	learned            BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL,
	sent_at            TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_email_drafts_unlearned ON email_drafts (owner_id, updated_at)
	WHERE edit_count > 0 AND learned = FALSE;
`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
