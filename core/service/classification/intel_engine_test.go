package classification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"intel_server/adapter/out/memory"
	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/service/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constEmbedder struct {
	vector []float32
	err    error
}

func (c *constEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.vector, nil
}

func (c *constEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = c.vector
	}
	return out, c.err
}

type scriptedClassifier struct {
	mu      sync.Mutex
	replies []string
	err     error
	block   bool
	calls   int
	digests []string
}

func (s *scriptedClassifier) ClassifyEmail(ctx context.Context, subject, body, sender, digest string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.digests = append(s.digests, digest)
	idx := s.calls - 1
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return s.replies[idx], nil
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	return "", errors.New("summarizer offline")
}

func newTestEngine(embedder *constEmbedder, classifier *scriptedClassifier) (*Engine, *memory.EmbeddingRepository) {
	repo := memory.NewEmbeddingRepository()
	store := embedding.NewStore(repo, embedder)
	cfg := DefaultConfig()
	cfg.ProviderTimeout = 50 * time.Millisecond
	return NewEngine(store, embedder, classifier, failingSummarizer{}, cfg), repo
}

func TestClassifyFallbackEndToEnd(t *testing.T) {
	engine, repo := newTestEngine(&constEmbedder{vector: []float32{1, 0, 0}}, &scriptedClassifier{err: errors.New("503")})
	owner := uuid.New()

	got := engine.Classify(context.Background(), in.ClassifyInput{
		OwnerID: owner,
		EmailID: "msg-1",
		Subject: certificateSubject,
		Body:    certificateBody,
		Sender:  "ops@example.com",
	})

	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.True(t, got.RequiresResponse)
	assert.Equal(t, domain.CategoryRequiresResponse, got.Category)
	assert.Equal(t, 0.5, got.Confidence)

	records, err := repo.ListByOwner(context.Background(), owner, domain.ContentTypeEmail)
	require.NoError(t, err)
	require.Len(t, records, 1)
	meta, err := domain.DecodeClassificationMetadata(records[0].Metadata)
	require.NoError(t, err)
	assert.Equal(t, got, meta.Classification)
	assert.Equal(t, "msg-1", meta.EmailID)
}

func TestClassifyInvalidJSONFallsBack(t *testing.T) {
	engine, _ := newTestEngine(&constEmbedder{vector: []float32{1, 0}}, &scriptedClassifier{replies: []string{"{not json"}})

	got := engine.Classify(context.Background(), in.ClassifyInput{OwnerID: uuid.New(), Subject: "hello", Body: "world"})

	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
}

func TestClassifyTimeoutFallsBack(t *testing.T) {
	engine, _ := newTestEngine(&constEmbedder{vector: []float32{1, 0}}, &scriptedClassifier{block: true})

	start := time.Now()
	got := engine.Classify(context.Background(), in.ClassifyInput{OwnerID: uuid.New(), Subject: "fyi", Body: "notes"})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, domain.PriorityLow, got.Priority)
}

func TestClassifyEmbeddingFailureStillClassifies(t *testing.T) {
	classifier := &scriptedClassifier{replies: []string{
		`{"priority":1,"category":"Personal","requiresResponse":false,"confidenceScore":0.7,"keywords":["dinner"],"actionItems":null}`,
	}}
	engine, repo := newTestEngine(&constEmbedder{err: errors.New("embedding quota")}, classifier)
	owner := uuid.New()

	got := engine.Classify(context.Background(), in.ClassifyInput{OwnerID: owner, Subject: "dinner", Body: "friday?"})

	assert.Equal(t, domain.CategoryPersonal, got.Category)
	assert.Equal(t, 0.7, got.Confidence)
	records, err := repo.ListByOwner(context.Background(), owner, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClassifyUsesConsensusFromHistory(t *testing.T) {
	classifier := &scriptedClassifier{replies: []string{
		`{"priority":3,"category":"Support","requiresResponse":false,"confidenceScore":0.95,"keywords":["server"],"actionItems":"Restart the node"}`,
		`{"priority":0,"category":"Informational","requiresResponse":true,"confidenceScore":0.6,"keywords":["status"],"actionItems":null}`,
	}}
	engine, _ := newTestEngine(&constEmbedder{vector: []float32{0.2, 0.4, 0.9}}, classifier)
	owner := uuid.New()
	input := in.ClassifyInput{OwnerID: owner, Subject: "Server down", Body: "Production cluster is unreachable for all of the customers since this morning"}

	first := engine.Classify(context.Background(), input)
	require.Equal(t, domain.PriorityCritical, first.Priority)
	assert.Empty(t, classifier.digests[0])

	second := engine.Classify(context.Background(), input)

	assert.Equal(t, domain.PriorityCritical, second.Priority)
	assert.Equal(t, domain.CategorySupport, second.Category)
	assert.True(t, second.RequiresResponse)
	assert.InDelta(t, 0.75, second.Confidence, 1e-9)
	assert.Equal(t, []string{"status"}, second.Keywords)
	assert.Nil(t, second.ActionItems)

	require.Len(t, classifier.digests, 2)
	assert.Contains(t, classifier.digests[1], "category Support")
	assert.True(t, strings.Contains(classifier.digests[1], "Server down Production cluster"))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "a b c", TruncateWords("a  b\nc", 5))
	assert.Equal(t, "a b...", TruncateWords("a b c d", 2))
}
