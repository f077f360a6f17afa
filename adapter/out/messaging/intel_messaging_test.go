package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel_server/core/domain"
)

func TestEncodeDecodeValues(t *testing.T) {
	evt := &domain.DraftEditedEvent{
		DraftID:         uuid.New(),
		OwnerID:         uuid.New(),
		OriginalContent: "Hi Bob",
		EditedContent:   "Dear Bob",
		EditTypes:       []string{"tone"},
		EditedAt:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	values, err := encodeValues(domain.EventDraftEdited, evt)
	require.NoError(t, err)

	eventType, data, err := decodeValues(values)
	require.NoError(t, err)
	assert.Equal(t, domain.EventDraftEdited, eventType)

	var got domain.DraftEditedEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, evt.DraftID, got.DraftID)
	assert.Equal(t, "Dear Bob", got.EditedContent)
	assert.Equal(t, []string{"tone"}, got.EditTypes)
}

func TestDecodeValuesRejectsMalformedEntries(t *testing.T) {
	_, _, err := decodeValues(map[string]interface{}{"type": "x"})
	assert.Error(t, err)

	_, _, err = decodeValues(map[string]interface{}{"data": 42})
	assert.Error(t, err)

	eventType, data, err := decodeValues(map[string]interface{}{"data": "{}"})
	require.NoError(t, err)
	assert.Empty(t, eventType)
	assert.Equal(t, []byte("{}"), data)
}

func TestReadGroupStreams(t *testing.T) {
	assert.Equal(t,
		[]string{StreamDraftEdited, StreamEmailProcessed, ">", ">"},
		readGroupStreams([]string{StreamDraftEdited, StreamEmailProcessed}))
	assert.Empty(t, readGroupStreams(nil))
}

type recordingPublisher struct {
	err    error
	edited []*domain.DraftEditedEvent
	ctxErr error
}

func (p *recordingPublisher) PublishDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) error {
	p.ctxErr = ctx.Err()
	p.edited = append(p.edited, evt)
	return p.err
}

func (p *recordingPublisher) PublishEmailProcessed(context.Context, *domain.EmailProcessedEvent) error {
	return p.err
}

func TestStreamDispatcherDetachesFromRequest(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewStreamDispatcher(pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.DispatchDraftEdited(ctx, &domain.DraftEditedEvent{DraftID: uuid.New()})

	require.Len(t, pub.edited, 1)
	assert.NoError(t, pub.ctxErr)
}

func TestStreamDispatcherSwallowsPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("redis down")}
	d := NewStreamDispatcher(pub, zerolog.Nop())

	assert.NotPanics(t, func() {
		d.DispatchDraftEdited(context.Background(), &domain.DraftEditedEvent{DraftID: uuid.New()})
	})
	assert.Len(t, pub.edited, 1)
}
