package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/database/models"
	"gorm.io/gorm"
)

// CardEvent describes a completed card mutation.
type CardEvent struct {
	CardID     uuid.UUID         `json:"card_id"`
	OwnerID    uuid.UUID         `json:"owner_id"`
	ActorID    uuid.UUID         `json:"actor_id"`
	Action     models.CardAction `json:"action"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher hands card events to whatever records them. Publishing
// happens after the mutation is stored and its failure never fails the
// request.
type EventPublisher interface {
	PublishCardEvent(ctx context.Context, event CardEvent) error
}

type PublisherFunc func(ctx context.Context, event CardEvent) error

func (f PublisherFunc) PublishCardEvent(ctx context.Context, event CardEvent) error {
	return f(ctx, event)
}

// InlinePublisher records events synchronously; used when no job queue is
// available.
func InlinePublisher(db *gorm.DB) EventPublisher {
	return PublisherFunc(func(ctx context.Context, event CardEvent) error {
		return RecordEvent(ctx, db, event)
	})
}

// RecordEvent appends event to the audit table.
func RecordEvent(ctx context.Context, db *gorm.DB, event CardEvent) error {
	row := models.CardEvent{
		CardID:     event.CardID,
		OwnerID:    event.OwnerID,
		ActorID:    event.ActorID,
		Action:     event.Action,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("recording card event: %w", err)
	}
	return nil
}
