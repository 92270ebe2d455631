package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/hugh/cardboard/internal/cards"
	"github.com/hugh/cardboard/pkg/queue"
)

// Task type names
const (
	TypeCardEvent  = "card:event"
	TypeCardDigest = "card:digest"
)

// CardEventPayload is the wire form of cards.CardEvent.
type CardEventPayload = cards.CardEvent

func NewCardEventTask(payload CardEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCardEvent, data, asynq.Queue(queue.QueueEvents), asynq.MaxRetry(10)), nil
}

// CardDigestPayload is empty - the digest covers every card
type CardDigestPayload struct{}

func NewCardDigestTask() *asynq.Task {
	return asynq.NewTask(TypeCardDigest, nil, asynq.Queue(queue.QueueDefault), asynq.MaxRetry(0))
}
