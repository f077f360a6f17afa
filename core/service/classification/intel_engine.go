// Package classification combines embedding consensus with a generative
// classifier into one scored result.
package classification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
	"intel_server/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Config tunes the engine.
type Config struct {
	SimilarLimit       int
	MinSimilarity      float64
	ConsensusThreshold float64
	DigestSize         int
	DigestMaxWords     int
	ProviderTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		SimilarLimit:       5,
		MinSimilarity:      0.7,
		ConsensusThreshold: 0.8,
		DigestSize:         3,
		DigestMaxWords:     50,
		ProviderTimeout:    30 * time.Second,
	}
}

// Engine implements in.ClassificationService.
type Engine struct {
	store      in.EmbeddingStore
	embedder   out.EmbeddingProvider
	classifier out.GenerativeClassifier
	summarizer out.Summarizer
	cfg        Config
}

func NewEngine(store in.EmbeddingStore, embedder out.EmbeddingProvider, classifier out.GenerativeClassifier, summarizer out.Summarizer, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SimilarLimit <= 0 {
		cfg.SimilarLimit = def.SimilarLimit
	}
	if cfg.DigestSize <= 0 {
		cfg.DigestSize = def.DigestSize
	}
	if cfg.DigestMaxWords <= 0 {
		cfg.DigestMaxWords = def.DigestMaxWords
	}
	return &Engine{
		store:      store,
		embedder:   embedder,
		classifier: classifier,
		summarizer: summarizer,
		cfg:        cfg,
	}
}

// Classify never fails: provider or parse problems fall back to the keyword rules.
func (e *Engine) Classify(ctx context.Context, input in.ClassifyInput) domain.ClassificationResult {
	start := time.Now()
	log := logger.WithContext(ctx).WithFields(map[string]any{
		"owner_id": input.OwnerID.String(),
		"email_id": input.EmailID,
	})

	text := input.Subject + " " + input.Body
	query := e.embedQuery(ctx, text, log)
	neighbours := e.lookup(ctx, query, input, log)
	candidates := decodeCandidates(neighbours)

	var (
		consensus  *domain.ClassificationResult
		generative domain.ClassificationResult
	)
	var g errgroup.Group
	g.Go(func() error {
		consensus = Consensus(candidates)
		return nil
	})
	g.Go(func() error {
		generative = e.generate(ctx, input, candidates, log)
		return nil
	})
	_ = g.Wait()

	result := Combine(consensus, generative, e.cfg.ConsensusThreshold)
	e.persist(ctx, input, text, query, result, log)

	log.WithDuration(time.Since(start)).WithFields(map[string]any{
		"priority":   result.Priority.String(),
		"category":   string(result.Category),
		"confidence": result.Confidence,
		"candidates": len(candidates),
	}).Debug("email classified")
	return result
}

func (e *Engine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.ProviderTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.ProviderTimeout)
}

func (e *Engine) embedQuery(ctx context.Context, text string, log *logger.Logger) []float32 {
	if e.embedder == nil {
		return nil
	}
	callCtx, cancel := e.withDeadline(ctx)
	defer cancel()

	vector, err := e.embedder.Embed(callCtx, text)
	if err != nil {
		log.WithError(err).Warn("query embedding failed, continuing without consensus")
		return nil
	}
	return vector
}

func (e *Engine) lookup(ctx context.Context, query []float32, input in.ClassifyInput, log *logger.Logger) []domain.ScoredRecord {
	if len(query) == 0 {
		return nil
	}
	found, err := e.store.FindSimilar(ctx, query, input.OwnerID, e.cfg.SimilarLimit, e.cfg.MinSimilarity, domain.ContentTypeEmail)
	if err != nil {
		log.WithError(err).Warn("similarity lookup failed, continuing without consensus")
		return nil
	}
	return found
}

func (e *Engine) generate(ctx context.Context, input in.ClassifyInput, candidates []candidate, log *logger.Logger) domain.ClassificationResult {
	if e.classifier == nil {
		return Fallback(input.Subject, input.Body)
	}

	digest := e.buildDigest(ctx, candidates, log)

	callCtx, cancel := e.withDeadline(ctx)
	defer cancel()

	raw, err := e.classifier.ClassifyEmail(callCtx, input.Subject, input.Body, input.Sender, digest)
	if err != nil {
		log.WithError(err).Warn("generative classifier failed, using fallback rules")
		return Fallback(input.Subject, input.Body)
	}
	parsed, err := ParseGenerativeOutput(raw)
	if err != nil {
		log.WithError(err).Warn("generative output rejected, using fallback rules")
		return Fallback(input.Subject, input.Body)
	}
	return *parsed
}

// buildDigest summarizes the top candidates concurrently. A failed summary
// falls back to the candidate's text truncated to the word budget.
func (e *Engine) buildDigest(ctx context.Context, candidates []candidate, log *logger.Logger) string {
	n := len(candidates)
	if n > e.cfg.DigestSize {
		n = e.cfg.DigestSize
	}
	if n == 0 {
		return ""
	}

	summaries := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			summaries[i] = e.summarize(ctx, candidates[i].record.Content, log)
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	b.WriteString("Previously classified similar emails:\n")
	for i := 0; i < n; i++ {
		c := candidates[i].classification
		fmt.Fprintf(&b, "%d. (similarity %.2f, priority %s, category %s, requires response %t) %s\n",
			i+1, candidates[i].similarity, c.Priority, c.Category, c.RequiresResponse, summaries[i])
	}
	return b.String()
}

func (e *Engine) summarize(ctx context.Context, text string, log *logger.Logger) string {
	if e.summarizer == nil {
		return TruncateWords(text, e.cfg.DigestMaxWords)
	}
	callCtx, cancel := e.withDeadline(ctx)
	defer cancel()

	summary, err := e.summarizer.Summarize(callCtx, text, e.cfg.DigestMaxWords)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			log.WithError(err).Debug("digest summary failed, truncating")
		}
		return TruncateWords(text, e.cfg.DigestMaxWords)
	}
	return TruncateWords(summary, e.cfg.DigestMaxWords)
}

// persist stores the message embedding with its result for future consensus.
// Failures are logged only.
func (e *Engine) persist(ctx context.Context, input in.ClassifyInput, text string, query []float32, result domain.ClassificationResult, log *logger.Logger) {
	if len(query) == 0 {
		log.Warn("no query vector, classification not stored for consensus")
		return
	}
	meta, err := domain.NewClassificationMetadata(result, input.EmailID, input.Sender).ToMap()
	if err != nil {
		log.WithError(err).Warn("encode classification metadata failed")
		return
	}
	if _, err := e.store.Store(ctx, input.OwnerID, domain.ContentTypeEmail, text, query, meta); err != nil {
		log.WithError(err).Warn("store classification embedding failed")
	}
}

// TruncateWords keeps at most n whitespace-separated words.
func TruncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}
