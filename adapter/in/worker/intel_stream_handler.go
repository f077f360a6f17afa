package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"intel_server/core/domain"
)

// StreamHandler applies learning events read from Redis Streams in worker mode.
type StreamHandler struct {
	handler EditHandler
	budget  time.Duration
	log     zerolog.Logger
}

func NewStreamHandler(handler EditHandler, budget time.Duration, log zerolog.Logger) *StreamHandler {
	if budget <= 0 {
		budget = DefaultPoolConfig().Budget
	}
	return &StreamHandler{
		handler: handler,
		budget:  budget,
		log:     log.With().Str("component", "stream_handler").Logger(),
	}
}

// Handle implements messaging.JobHandler. Returning an error leaves the
// entry pending so the consumer can reclaim it later.
func (h *StreamHandler) Handle(ctx context.Context, stream, eventType string, data []byte) error {
	switch eventType {
	case domain.EventDraftEdited:
		var evt domain.DraftEditedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			// malformed entries are acked and dropped
			h.log.Error().Err(err).Str("stream", stream).Msg("invalid draft_edited payload")
			return nil
		}

		jobCtx, cancel := context.WithTimeout(ctx, h.budget)
		defer cancel()
		if err := h.handler.HandleDraftEdited(jobCtx, &evt); err != nil {
			return fmt.Errorf("learn from draft %s: %w", evt.DraftID, err)
		}
		return nil

	default:
		h.log.Warn().Str("stream", stream).Str("type", eventType).Msg("unknown event type")
		return nil
	}
}
