package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/hugh/cardboard/internal/cards"
)

// Enqueuer is the subset of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EventPublisher queues card events for the worker to record.
type EventPublisher struct {
	client Enqueuer
}

var _ cards.EventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(client Enqueuer) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishCardEvent(ctx context.Context, event cards.CardEvent) error {
	task, err := NewCardEventTask(event)
	if err != nil {
		return fmt.Errorf("building card event task: %w", err)
	}
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueueing card event: %w", err)
	}
	return nil
}
