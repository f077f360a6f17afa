package llm

import (
	"context"
	"time"

	"intel_server/core/port/out"
	"intel_server/pkg/cache"
	"intel_server/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// JSONCache is the subset of cache.RedisCache used for embeddings.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedEmbedder memoizes embeddings by text hash and collapses concurrent
// requests for the same text into one provider call.
type CachedEmbedder struct {
	next  out.EmbeddingProvider
	cache JSONCache
	model string
	ttl   time.Duration
	group singleflight.Group
}

func NewCachedEmbedder(next out.EmbeddingProvider, c JSONCache, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: c, model: model, ttl: ttl}
}

func (e *CachedEmbedder) key(text string) string {
	return cache.HashKey(e.model, text)
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)
	if vec, ok := e.lookup(ctx, key); ok {
		return vec, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		vec, err := e.next.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		e.store(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

// EmbedBatch serves cached texts locally and sends only the misses upstream.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if vec, ok := e.lookup(ctx, e.key(text)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := e.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		out[missIdx[j]] = vec
		e.store(ctx, e.key(missTexts[j]), vec)
	}
	return out, nil
}

func (e *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	var vec []float32
	ok, err := e.cache.GetJSON(ctx, key, &vec)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Debug("embedding cache read failed")
		return nil, false
	}
	return vec, ok && len(vec) > 0
}

func (e *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	if err := e.cache.SetJSON(ctx, key, vec, e.ttl); err != nil {
		logger.WithContext(ctx).WithError(err).Debug("embedding cache write failed")
	}
}
