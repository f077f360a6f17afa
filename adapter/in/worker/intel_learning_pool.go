// Package worker runs learning jobs off the request path.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"

	"intel_server/core/domain"
	"intel_server/core/port/in"
)

// EditHandler is the part of the learning service the pool drives.
type EditHandler interface {
	HandleDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) error
}

// PoolConfig holds learning pool configuration.
type PoolConfig struct {
	Workers   int           // concurrent learning jobs
	QueueSize int           // events buffered ahead of the workers
	Budget    time.Duration // deadline for one job
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:   4,
		QueueSize: 256,
		Budget:    5 * time.Second,
	}
}

// PoolMetrics is a snapshot of the pool counters.
type PoolMetrics struct {
	Processed int64
	Failed    int64
	TimedOut  int64
	Dropped   int64
}

// LearningPool implements in.LearningDispatcher on a go-pkgz/pool worker group.
// Dispatch never blocks: a full queue drops the event.
type LearningPool struct {
	handler EditHandler
	config  PoolConfig

	group *pool.WorkerGroup[*domain.DraftEditedEvent]
	queue chan *domain.DraftEditedEvent
	fed   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	dropped   atomic.Int64

	log     zerolog.Logger
	mu      sync.RWMutex
	started bool
}

// learningWorker implements pool.Worker.
type learningWorker struct {
	pool *LearningPool
}

func (w *learningWorker) Do(ctx context.Context, evt *domain.DraftEditedEvent) error {
	w.pool.processJob(ctx, evt)
	return nil
}

func NewLearningPool(handler EditHandler, config PoolConfig, log zerolog.Logger) *LearningPool {
	def := DefaultPoolConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.Budget <= 0 {
		config.Budget = def.Budget
	}
	return &LearningPool{
		handler: handler,
		config:  config,
		log:     log.With().Str("component", "learning_pool").Logger(),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *LearningPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.group = pool.New[*domain.DraftEditedEvent](p.config.Workers, &learningWorker{pool: p}).
		WithContinueOnError()
	if err := p.group.Go(p.ctx); err != nil {
		p.cancel()
		return err
	}

	p.queue = make(chan *domain.DraftEditedEvent, p.config.QueueSize)
	p.fed = make(chan struct{})
	go p.feed()

	p.started = true
	p.log.Info().
		Int("workers", p.config.Workers).
		Int("queue_size", p.config.QueueSize).
		Dur("budget", p.config.Budget).
		Msg("learning pool started")
	return nil
}

// feed moves queued events into the worker group until the queue is closed.
func (p *LearningPool) feed() {
	defer close(p.fed)
	for evt := range p.queue {
		p.group.Submit(evt)
	}
}

// Stop drains queued events and waits for running jobs, up to ctx.
func (p *LearningPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	close(p.queue)
	p.mu.Unlock()

	defer p.cancel()

	select {
	case <-p.fed:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.group.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Warn().Err(err).Msg("error closing learning pool")
		return err
	}

	m := p.Metrics()
	p.log.Info().
		Int64("processed", m.Processed).
		Int64("failed", m.Failed).
		Int64("timed_out", m.TimedOut).
		Int64("dropped", m.Dropped).
		Msg("learning pool stopped")
	return nil
}

// DispatchDraftEdited queues evt for learning. The caller's ctx only scopes the hand-off.
func (p *LearningPool) DispatchDraftEdited(_ context.Context, evt *domain.DraftEditedEvent) {
	p.Submit(evt)
}

// Submit queues evt and reports whether it was accepted.
func (p *LearningPool) Submit(evt *domain.DraftEditedEvent) bool {
	if evt == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		p.drop(evt, "pool not running")
		return false
	}

	select {
	case p.queue <- evt:
		return true
	default:
		p.drop(evt, "queue full")
		return false
	}
}

func (p *LearningPool) drop(evt *domain.DraftEditedEvent, reason string) {
	p.dropped.Add(1)
	p.log.Warn().
		Str("draft_id", evt.DraftID.String()).
		Str("owner_id", evt.OwnerID.String()).
		Str("reason", reason).
		Msg("learning job dropped")
}

// processJob runs one event under the job budget. The handler's goroutine is
// abandoned, not awaited, once the budget expires.
func (p *LearningPool) processJob(ctx context.Context, evt *domain.DraftEditedEvent) {
	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, p.config.Budget)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.handler.HandleDraftEdited(jobCtx, evt)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-jobCtx.Done():
		err = jobCtx.Err()
	}

	log := p.log.With().
		Str("draft_id", evt.DraftID.String()).
		Str("owner_id", evt.OwnerID.String()).
		Dur("elapsed", time.Since(start)).
		Logger()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		p.timedOut.Add(1)
		log.Warn().Dur("budget", p.config.Budget).Msg("learning job exceeded budget")
	case err != nil:
		p.failed.Add(1)
		log.Error().Err(err).Msg("learning job failed")
	default:
		p.processed.Add(1)
		log.Debug().Msg("learning job done")
	}
}

func (p *LearningPool) Metrics() PoolMetrics {
	return PoolMetrics{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		TimedOut:  p.timedOut.Load(),
		Dropped:   p.dropped.Load(),
	}
}

var _ in.LearningDispatcher = (*LearningPool)(nil)
