package models

import (
	"time"

	"github.com/google/uuid"
)

type CardAction string

const (
	CardActionCreated CardAction = "created"
	CardActionUpdated CardAction = "updated"
	CardActionDeleted CardAction = "deleted"
)

// CardEvent is an audit record written by the worker. It outlives the card
// so history stays readable after deletion.
type CardEvent struct {
	Base
	CardID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"card_id"`
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	ActorID    uuid.UUID  `gorm:"type:uuid;not null" json:"actor_id"`
	Action     CardAction `gorm:"type:varchar(16);not null" json:"action"`
	OccurredAt time.Time  `gorm:"not null;index" json:"occurred_at"`
}

func (CardEvent) TableName() string {
	return "card_events"
}
