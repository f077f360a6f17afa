// Package messaging publishes and consumes learning events over Redis Streams.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"intel_server/core/domain"
	"intel_server/core/port/in"
	"intel_server/core/port/out"
)

// Stream names
const (
	StreamDraftEdited    = "learning:draft_edited"
	StreamEmailProcessed = "email:processed"
)

// streamMaxLen bounds each stream; trimming is approximate.
const streamMaxLen = 100000

// RedisProducer implements out.EventPublisher using Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

func (p *RedisProducer) PublishDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) error {
	return p.publish(ctx, StreamDraftEdited, domain.EventDraftEdited, evt)
}

func (p *RedisProducer) PublishEmailProcessed(ctx context.Context, evt *domain.EmailProcessedEvent) error {
	return p.publish(ctx, StreamEmailProcessed, domain.EventEmailProcessed, evt)
}

func (p *RedisProducer) publish(ctx context.Context, stream, eventType string, payload any) error {
	values, err := encodeValues(eventType, payload)
	if err != nil {
		return err
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		ID:     "*",
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return nil
}

func encodeValues(eventType string, payload any) (map[string]interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return map[string]interface{}{
		"type": eventType,
		"data": string(data),
	}, nil
}

// StreamDispatcher hands edit events to worker processes through the draft_edited stream.
type StreamDispatcher struct {
	publisher out.EventPublisher
	log       zerolog.Logger
}

func NewStreamDispatcher(publisher out.EventPublisher, log zerolog.Logger) *StreamDispatcher {
	return &StreamDispatcher{
		publisher: publisher,
		log:       log.With().Str("component", "stream_dispatcher").Logger(),
	}
}

// DispatchDraftEdited publishes evt. Publish failures are logged and dropped.
func (d *StreamDispatcher) DispatchDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) {
	if err := d.publisher.PublishDraftEdited(context.WithoutCancel(ctx), evt); err != nil {
		d.log.Error().
			Err(err).
			Str("draft_id", evt.DraftID.String()).
			Str("owner_id", evt.OwnerID.String()).
			Msg("failed to dispatch draft edit")
	}
}

var (
	_ out.EventPublisher    = (*RedisProducer)(nil)
	_ in.LearningDispatcher = (*StreamDispatcher)(nil)
)
