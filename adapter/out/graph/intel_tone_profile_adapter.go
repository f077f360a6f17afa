package graph

import (
	"context"
	"fmt"
	"time"

	"intel_server/core/domain"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// =============================================================================
// Neo4j Tone Profile Adapter
// =============================================================================

// ToneProfileAdapter implements out.ToneProfileRepository as
// (:User)-[:HAS_TONE]->(:ToneProfile).
type ToneProfileAdapter struct {
	driver neo4j.DriverWithContext
	dbName string
}

func NewToneProfileAdapter(driver neo4j.DriverWithContext, dbName string) *ToneProfileAdapter {
	return &ToneProfileAdapter{driver: driver, dbName: dbName}
}

// EnsureIndexes creates necessary constraints.
func (a *ToneProfileAdapter) EnsureIndexes(ctx context.Context) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	queries := []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE`,
		`CREATE CONSTRAINT tone_owner_unique IF NOT EXISTS FOR (t:ToneProfile) REQUIRE t.owner_id IS UNIQUE`,
	}
	for _, query := range queries {
		if _, err := session.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

func (a *ToneProfileAdapter) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.ToneProfile, error) {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: a.dbName,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	query := `
		MATCH (:User {user_id: $ownerID})-[:HAS_TONE]->(t:ToneProfile)
		RETURN t.id AS id, t.characteristics AS characteristics, t.style AS style,
			   t.preferred_phrases AS preferred_phrases, t.avoided_phrases AS avoided_phrases,
			   t.confidence AS confidence, t.sample_count AS sample_count,
			   t.created_at AS created_at, t.updated_at AS updated_at
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"ownerID": ownerID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to get tone profile: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to read tone profile: %w", err)
		}
		return nil, nil
	}
	return recordToProfile(ownerID, result.Record())
}

func recordToProfile(ownerID uuid.UUID, record *neo4j.Record) (*domain.ToneProfile, error) {
	id, err := uuid.Parse(getStringValue(record, "id"))
	if err != nil {
		return nil, fmt.Errorf("invalid tone profile id: %w", err)
	}
	return domain.RestoreToneProfile(domain.ToneProfile{
		ID:               id,
		OwnerID:          ownerID,
		Characteristics:  getStringValue(record, "characteristics"),
		PreferredPhrases: getStringArrayValue(record, "preferred_phrases"),
		AvoidedPhrases:   getStringArrayValue(record, "avoided_phrases"),
		Style:            domain.ToneStyle(getStringValue(record, "style")),
		CreatedAt:        time.UnixMilli(getInt64Value(record, "created_at")).UTC(),
	},
		getFloatValue(record, "confidence"),
		int(getInt64Value(record, "sample_count")),
		time.UnixMilli(getInt64Value(record, "updated_at")).UTC(),
	), nil
}

// Save merges the owner's user node and its single profile node.
func (a *ToneProfileAdapter) Save(ctx context.Context, p *domain.ToneProfile) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {user_id: $ownerID})
		MERGE (u)-[:HAS_TONE]->(t:ToneProfile {owner_id: $ownerID})
		ON CREATE SET t.id = $id, t.created_at = $createdAt
		SET t.characteristics = $characteristics,
			t.style = $style,
			t.preferred_phrases = $preferredPhrases,
			t.avoided_phrases = $avoidedPhrases,
			t.confidence = $confidence,
			t.sample_count = $sampleCount,
			t.updated_at = $updatedAt
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, profileParams(p))
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to save tone profile: %w", err)
	}
	return nil
}

func profileParams(p *domain.ToneProfile) map[string]interface{} {
	return map[string]interface{}{
		"ownerID":          p.OwnerID.String(),
		"id":               p.ID.String(),
		"characteristics":  p.Characteristics,
		"style":            string(p.Style),
		"preferredPhrases": p.PreferredPhrases,
		"avoidedPhrases":   p.AvoidedPhrases,
		"confidence":       p.Confidence(),
		"sampleCount":      int64(p.SampleCount()),
		"createdAt":        p.CreatedAt.UnixMilli(),
		"updatedAt":        p.UpdatedAt().UnixMilli(),
	}
}

// =============================================================================
// Record Helpers
// =============================================================================

func getStringValue(record *neo4j.Record, key string) string {
	if val, ok := record.Get(key); ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getInt64Value(record *neo4j.Record, key string) int64 {
	if val, ok := record.Get(key); ok && val != nil {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

func getFloatValue(record *neo4j.Record, key string) float64 {
	if val, ok := record.Get(key); ok && val != nil {
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
	}
	return 0
}

func getStringArrayValue(record *neo4j.Record, key string) []string {
	result := []string{}
	if val, ok := record.Get(key); ok && val != nil {
		if arr, ok := val.([]interface{}); ok {
			for _, v := range arr {
				if s, ok := v.(string); ok {
					result = append(result, s)
				}
			}
		}
	}
	return result
}
