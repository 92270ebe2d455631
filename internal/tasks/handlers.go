package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/cardboard/internal/cards"
	"github.com/hugh/cardboard/internal/database/models"
	"gorm.io/gorm"
)

type Handler struct {
	db          *gorm.DB
	logger      *slog.Logger
	cardService *cards.Service
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:          db,
		logger:      logger,
		cardService: cards.NewService(db, logger),
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeCardEvent, h.HandleCardEvent)
	mux.HandleFunc(TypeCardDigest, h.HandleCardDigest)
}

func (h *Handler) HandleCardEvent(ctx context.Context, t *asynq.Task) error {
	var payload CardEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if payload.CardID == uuid.Nil || payload.ActorID == uuid.Nil {
		return fmt.Errorf("card event missing ids: %w", asynq.SkipRetry)
	}
	switch payload.Action {
	case models.CardActionCreated, models.CardActionUpdated, models.CardActionDeleted:
	default:
		return fmt.Errorf("unknown card action %q: %w", payload.Action, asynq.SkipRetry)
	}

	if err := cards.RecordEvent(ctx, h.db, payload); err != nil {
		h.logger.Error("failed to record card event", "card_id", payload.CardID, "error", err)
		return err
	}

	h.logger.Debug("card event recorded",
		"card_id", payload.CardID,
		"action", payload.Action,
		"actor_id", payload.ActorID,
	)
	return nil
}

func (h *Handler) HandleCardDigest(ctx context.Context, t *asynq.Task) error {
	counts, err := h.cardService.CountByStatus(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	h.logger.Info("card digest",
		"total", total,
		models.CardStatusToDo.String(), counts[models.CardStatusToDo],
		models.CardStatusInProgress.String(), counts[models.CardStatusInProgress],
		models.CardStatusDone.String(), counts[models.CardStatusDone],
	)
	return nil
}
