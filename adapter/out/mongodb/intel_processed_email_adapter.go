package mongodb

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"intel_server/core/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// MongoDB Processed Email Adapter
// =============================================================================

const (
	collectionProcessedEmails = "processed_emails"

	// Compression threshold - only compress bodies larger than this
	compressionThreshold = 1024 // 1KB
)

// ProcessedEmailAdapter implements out.ProcessedEmailRepository using MongoDB.
type ProcessedEmailAdapter struct {
	collection *mongo.Collection
}

func NewProcessedEmailAdapter(db *mongo.Database) *ProcessedEmailAdapter {
	return &ProcessedEmailAdapter{collection: db.Collection(collectionProcessedEmails)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ProcessedEmailAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "email_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "received_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type classificationDocument struct {
	Priority         int      `bson:"priority"`
	Category         string   `bson:"category"`
	RequiresResponse bool     `bson:"requires_response"`
	Confidence       float64  `bson:"confidence"`
	Keywords         []string `bson:"keywords"`
	ActionItems      *string  `bson:"action_items,omitempty"`
}

type processedEmailDocument struct {
	ID      string   `bson:"id"`
	OwnerID string   `bson:"owner_id"`
	EmailID string   `bson:"email_id"`
	Subject string   `bson:"subject"`
	From    string   `bson:"from"`
	To      []string `bson:"to,omitempty"`

	// Body (potentially compressed)
	Body         []byte `bson:"body"`
	IsCompressed bool   `bson:"is_compressed"`

	Classification classificationDocument `bson:"classification"`
	Corrections    []domain.Correction    `bson:"corrections,omitempty"`

	ReceivedAt  time.Time `bson:"received_at"`
	ProcessedAt time.Time `bson:"processed_at"`
}

func toDocument(e *domain.ProcessedEmail) (*processedEmailDocument, error) {
	body := []byte(e.Body)
	compressed := false
	if len(body) > compressionThreshold {
		packed, err := compress(body)
		if err != nil {
			return nil, fmt.Errorf("failed to compress body: %w", err)
		}
		body, compressed = packed, true
	}

	c := e.Classification
	return &processedEmailDocument{
		ID:           e.ID.String(),
		OwnerID:      e.OwnerID.String(),
		EmailID:      e.EmailID,
		Subject:      e.Subject,
		From:         e.From,
		To:           e.To,
		Body:         body,
		IsCompressed: compressed,
		Classification: classificationDocument{
			Priority:         int(c.Priority),
			Category:         string(c.Category),
			RequiresResponse: c.RequiresResponse,
			Confidence:       c.Confidence,
			Keywords:         c.Keywords,
			ActionItems:      c.ActionItems,
		},
		Corrections: e.Corrections,
		ReceivedAt:  e.ReceivedAt,
		ProcessedAt: e.ProcessedAt,
	}, nil
}

func (d *processedEmailDocument) toEntity() (*domain.ProcessedEmail, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", d.OwnerID, err)
	}
	body := d.Body
	if d.IsCompressed {
		if body, err = decompress(body); err != nil {
			return nil, fmt.Errorf("failed to decompress body: %w", err)
		}
	}

	keywords := d.Classification.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &domain.ProcessedEmail{
		ID:      id,
		OwnerID: owner,
		EmailID: d.EmailID,
		Subject: d.Subject,
		From:    d.From,
		To:      d.To,
		Body:    string(body),
		Classification: domain.ClassificationResult{
			Priority:         domain.ClampPriority(d.Classification.Priority),
			Category:         domain.Category(d.Classification.Category),
			RequiresResponse: d.Classification.RequiresResponse,
			Confidence:       d.Classification.Confidence,
			Keywords:         keywords,
			ActionItems:      d.Classification.ActionItems,
		},
		Corrections: d.Corrections,
		ReceivedAt:  d.ReceivedAt,
		ProcessedAt: d.ProcessedAt,
	}, nil
}

// =============================================================================
// Operations
// =============================================================================

// Save upserts the processed email by id.
func (a *ProcessedEmailAdapter) Save(ctx context.Context, e *domain.ProcessedEmail) error {
	doc, err := toDocument(e)
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, bson.M{"id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save processed email: %w", err)
	}
	return nil
}

func (a *ProcessedEmailAdapter) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.ProcessedEmail, error) {
	return a.findOne(ctx, bson.M{"id": id.String(), "owner_id": ownerID.String()})
}

func (a *ProcessedEmailAdapter) GetByEmailID(ctx context.Context, ownerID uuid.UUID, emailID string) (*domain.ProcessedEmail, error) {
	return a.findOne(ctx, bson.M{"owner_id": ownerID.String(), "email_id": emailID})
}

func (a *ProcessedEmailAdapter) findOne(ctx context.Context, filter bson.M) (*domain.ProcessedEmail, error) {
	var doc processedEmailDocument
	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed email: %w", err)
	}
	return doc.toEntity()
}

// List returns the owner's emails newest first, paged by filter.
func (a *ProcessedEmailAdapter) List(ctx context.Context, ownerID uuid.UUID, filter domain.EmailFilter) ([]*domain.ProcessedEmail, int, error) {
	filter.Normalize()
	query := listQuery(ownerID, filter)

	total, err := a.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count processed emails: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "received_at", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))
	cursor, err := a.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list processed emails: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []processedEmailDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode processed emails: %w", err)
	}

	emails := make([]*domain.ProcessedEmail, 0, len(docs))
	for i := range docs {
		e, err := docs[i].toEntity()
		if err != nil {
			return nil, 0, err
		}
		emails = append(emails, e)
	}
	return emails, int(total), nil
}

func listQuery(ownerID uuid.UUID, filter domain.EmailFilter) bson.M {
	query := bson.M{"owner_id": ownerID.String()}
	if filter.Priority != nil {
		query["classification.priority"] = int(*filter.Priority)
	}
	if filter.Category != nil {
		query["classification.category"] = string(*filter.Category)
	}
	if filter.RequiresResponse != nil {
		query["classification.requires_response"] = *filter.RequiresResponse
	}
	return query
}

func compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
