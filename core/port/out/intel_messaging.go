package out

import (
	"context"

	"intel_server/core/domain"

	"github.com/google/uuid"
)

// OwnerLocker serializes read-modify-write sequences for one owner.
type OwnerLocker interface {
	// Lock blocks until the owner's lock is held or ctx ends.
	Lock(ctx context.Context, ownerID uuid.UUID) (unlock func(), err error)
}

// EventPublisher emits domain events to other processes.
type EventPublisher interface {
	PublishDraftEdited(ctx context.Context, evt *domain.DraftEditedEvent) error
	PublishEmailProcessed(ctx context.Context, evt *domain.EmailProcessedEvent) error
}
