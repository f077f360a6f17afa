package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"intel_server/adapter/in/worker"
	"intel_server/adapter/out/messaging"
	"intel_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker consumes the draft_edited stream and applies learning.
type Worker struct {
	consumer *messaging.Consumer
	deps     *Dependencies
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	zlog     zerolog.Logger
}

func NewWorker(deps *Dependencies) (*Worker, error) {
	if deps.Redis == nil {
		return nil, fmt.Errorf("worker mode requires REDIS_URL")
	}
	cfg := deps.Config

	zlog := logger.Default().Zerolog().With().Str("component", "worker").Logger()
	handler := worker.NewStreamHandler(deps.Learning, cfg.LearningBudget, zlog)

	consumer := messaging.NewConsumer(deps.Redis, &messaging.ConsumerConfig{
		Group:      cfg.StreamGroup,
		Consumer:   cfg.WorkerID,
		Streams:    []string{messaging.StreamDraftEdited},
		Handler:    handler,
		Logger:     zlog,
		BatchSize:  cfg.ConsumerBatchSize,
		Block:      cfg.ConsumerBlock(),
		MaxRetries: cfg.ConsumerMaxRetries,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	return &Worker{
		consumer: consumer,
		deps:     deps,
		ctx:      runCtx,
		cancel:   cancel,
		zlog:     zlog,
	}, nil
}

// Start blocks until Stop is called.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Run(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.zlog.Error().Err(err).Msg("consumer stopped")
		}
	}()

	w.zlog.Info().Str("worker_id", w.deps.Config.WorkerID).Msg("worker started")
	<-w.ctx.Done()
	w.wg.Wait()
}

func (w *Worker) Stop() {
	w.zlog.Info().Msg("stopping worker...")
	w.cancel()
	w.wg.Wait()
	w.zlog.Info().Msg("worker stopped")
}
