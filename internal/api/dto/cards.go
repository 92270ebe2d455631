package dto

import (
	"time"

	"github.com/hugh/cardboard/internal/database/models"
)

type CreateCardRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// UpdateCardRequest is a partial update; omitted or null fields are kept.
type UpdateCardRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type CardResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Color       *string      `json:"color"`
	Status      string       `json:"status"`
	UserID      string       `json:"userId"`
	User        *UserSummary `json:"user,omitempty"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

func CardToResponse(c *models.Card) CardResponse {
	return CardResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Status:      c.Status.String(),
		UserID:      c.UserID.String(),
		User:        UserToSummary(c.User),
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type CardEventResponse struct {
	ID         string `json:"id"`
	CardID     string `json:"cardId"`
	OwnerID    string `json:"ownerId"`
	ActorID    string `json:"actorId"`
	Action     string `json:"action"`
	OccurredAt string `json:"occurredAt"`
}

func CardEventToResponse(e *models.CardEvent) CardEventResponse {
	return CardEventResponse{
		ID:         e.ID.String(),
		CardID:     e.CardID.String(),
		OwnerID:    e.OwnerID.String(),
		ActorID:    e.ActorID.String(),
		Action:     string(e.Action),
		OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}
