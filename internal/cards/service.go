package cards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/internal/pagination"
	"github.com/hugh/cardboard/internal/policy"
	"github.com/hugh/cardboard/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const msgNotAuthorized = "User is not authorized to perform this action"

// Service runs the card commands and queries. Every single-record operation
// goes through policy.Authorize; listing narrows by owner instead.
//
// Update and Delete are load-then-write without a version check, so
// concurrent writers to one card are last-write-wins.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	events EventPublisher
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(db *gorm.DB, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{db: db, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Name        string
	Description *string
	Color       *string
}

// UpdateInput holds a partial update: nil fields keep the stored value.
type UpdateInput struct {
	Name        *string
	Description *string
	Color       *string
	Status      *models.CardStatus
}

func (s *Service) Create(ctx context.Context, caller auth.Caller, input CreateInput) (*models.Card, error) {
	name := strings.TrimSpace(validation.SanitizeString(input.Name))
	description := sanitizeOptional(input.Description)
	color := trimOptional(input.Color)

	details := make(map[string]string)
	if name == "" {
		details["name"] = "Name is required"
	} else if !validation.IsWithinLength(name, validation.MaxNameLength) {
		details["name"] = "Name is too long"
	}
	if description != nil && !validation.IsWithinLength(*description, validation.MaxDescriptionLength) {
		details["description"] = "Description is too long"
	}
	if color != nil && !validation.IsValidHexColor(*color) {
		return nil, apperr.BadRequest("%s is not a valid Hex Color Code", *color)
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	// The token may outlive its account; the owner must still exist.
	var owner models.User
	if err := s.db.WithContext(ctx).First(&owner, "id = ?", caller.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("User not authorized to perform this action")
		}
		return nil, fmt.Errorf("resolving caller: %w", err)
	}

	card := models.Card{
		Name:        name,
		Description: description,
		Color:       color,
		Status:      models.CardStatusToDo,
		UserID:      owner.ID,
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&card).Error; err != nil {
		return nil, fmt.Errorf("creating card: %w", err)
	}
	card.User = &owner

	s.logger.InfoContext(ctx, "card created", "card_id", card.ID, "owner_id", owner.ID)
	s.publish(ctx, &card, caller, models.CardActionCreated)

	return &card, nil
}

func (s *Service) Update(ctx context.Context, caller auth.Caller, id uuid.UUID, input UpdateInput) (*models.Card, error) {
	details := make(map[string]string)
	if input.Name != nil {
		trimmed := strings.TrimSpace(validation.SanitizeString(*input.Name))
		input.Name = &trimmed
		if trimmed == "" {
			details["name"] = "Name cannot be empty"
		} else if !validation.IsWithinLength(trimmed, validation.MaxNameLength) {
			details["name"] = "Name is too long"
		}
	}
	input.Description = sanitizeOptional(input.Description)
	if input.Description != nil && !validation.IsWithinLength(*input.Description, validation.MaxDescriptionLength) {
		details["description"] = "Description is too long"
	}
	input.Color = trimOptional(input.Color)
	if input.Color != nil && !validation.IsValidHexColor(*input.Color) {
		return nil, apperr.BadRequest("%s is not a valid Hex Color Code", *input.Color)
	}
	if input.Status != nil && !input.Status.Valid() {
		details["status"] = "Invalid status. Must be one of: ToDo, InProgress, Done"
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if policy.Authorize(caller.ID, caller.Role, card.UserID, policy.OperationUpdate) == policy.Deny {
		return nil, apperr.Unauthorized(msgNotAuthorized)
	}

	if input.Name != nil {
		card.Name = *input.Name
	}
	if input.Description != nil {
		card.Description = input.Description
	}
	if input.Color != nil {
		card.Color = input.Color
	}
	if input.Status != nil {
		card.Status = *input.Status
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(card).Error; err != nil {
		return nil, fmt.Errorf("updating card: %w", err)
	}

	s.logger.InfoContext(ctx, "card updated", "card_id", card.ID, "actor_id", caller.ID)
	s.publish(ctx, card, caller, models.CardActionUpdated)

	return card, nil
}

func (s *Service) Delete(ctx context.Context, caller auth.Caller, id uuid.UUID) error {
	card, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if policy.Authorize(caller.ID, caller.Role, card.UserID, policy.OperationDelete) == policy.Deny {
		return apperr.Unauthorized(msgNotAuthorized)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Card{}, "id = ?", card.ID).Error; err != nil {
		return fmt.Errorf("deleting card: %w", err)
	}

	s.logger.InfoContext(ctx, "card deleted", "card_id", card.ID, "actor_id", caller.ID)
	s.publish(ctx, card, caller, models.CardActionDeleted)

	return nil
}

func (s *Service) Get(ctx context.Context, caller auth.Caller, id uuid.UUID) (*models.Card, error) {
	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if policy.Authorize(caller.ID, caller.Role, card.UserID, policy.OperationRead) == policy.Deny {
		return nil, apperr.Unauthorized(msgNotAuthorized)
	}

	return card, nil
}

// List runs the pipeline: owner scope, filters, sort, then the page cut.
func (s *Service) List(ctx context.Context, caller auth.Caller, q ListQuery) (pagination.Page[models.Card], error) {
	query := s.db.Model(&models.Card{}).Scopes(q.Scopes(caller)...)
	page, err := pagination.Find[models.Card](ctx, query, q.Page, preloadOwner)
	if err != nil {
		return pagination.Page[models.Card]{}, fmt.Errorf("listing cards: %w", err)
	}
	return page, nil
}

// History returns the recorded events of a card in the order they happened.
// Deleted cards stay readable through the owner stored on their events.
func (s *Service) History(ctx context.Context, caller auth.Caller, id uuid.UUID, params pagination.Params) (pagination.Page[models.CardEvent], error) {
	var ownerID uuid.UUID

	card, err := s.load(ctx, id)
	switch {
	case err == nil:
		ownerID = card.UserID
	case errors.Is(err, apperr.ErrNotFound):
		var first models.CardEvent
		if ferr := s.db.WithContext(ctx).
			Where("card_id = ?", id).
			Order("occurred_at ASC").
			First(&first).Error; ferr != nil {
			if errors.Is(ferr, gorm.ErrRecordNotFound) {
				return pagination.Page[models.CardEvent]{}, err
			}
			return pagination.Page[models.CardEvent]{}, fmt.Errorf("loading card events: %w", ferr)
		}
		ownerID = first.OwnerID
	default:
		return pagination.Page[models.CardEvent]{}, err
	}

	if policy.Authorize(caller.ID, caller.Role, ownerID, policy.OperationRead) == policy.Deny {
		return pagination.Page[models.CardEvent]{}, apperr.Unauthorized(msgNotAuthorized)
	}

	query := s.db.Model(&models.CardEvent{}).
		Where("card_id = ?", id).
		Order("occurred_at ASC").
		Order("created_at ASC")
	return pagination.Find[models.CardEvent](ctx, query, params)
}

// CountByStatus feeds the periodic digest.
func (s *Service) CountByStatus(ctx context.Context) (map[models.CardStatus]int64, error) {
	var rows []struct {
		Status models.CardStatus
		Total  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Card{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("counting cards: %w", err)
	}

	counts := map[models.CardStatus]int64{
		models.CardStatusToDo:       0,
		models.CardStatusInProgress: 0,
		models.CardStatusDone:       0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).
		Scopes(preloadOwner).
		First(&card, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("The card with Id %s was not found", id)
		}
		return nil, fmt.Errorf("loading card: %w", err)
	}
	return &card, nil
}

func (s *Service) publish(ctx context.Context, card *models.Card, caller auth.Caller, action models.CardAction) {
	if s.events == nil {
		return
	}
	event := CardEvent{
		CardID:     card.ID,
		OwnerID:    card.UserID,
		ActorID:    caller.ID,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishCardEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish card event",
			"card_id", card.ID,
			"action", action,
			"error", err,
		)
	}
}

func preloadOwner(db *gorm.DB) *gorm.DB {
	return db.Preload("User")
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := validation.SanitizeString(*s)
	return &v
}
