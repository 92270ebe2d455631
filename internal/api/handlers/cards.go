package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/cardboard/internal/api/dto"
	"github.com/hugh/cardboard/internal/api/middleware"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/cards"
	"github.com/hugh/cardboard/internal/database/models"
)

type CardHandler struct {
	cardService *cards.Service
	pages       PageDefaults
	logger      *slog.Logger
}

func NewCardHandler(cardService *cards.Service, pages PageDefaults, logger *slog.Logger) *CardHandler {
	return &CardHandler{cardService: cardService, pages: pages, logger: logger}
}

// Create handles POST /cards/create
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req dto.CreateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	card, err := h.cardService.Create(r.Context(), caller, cards.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardToResponse(card))
}

// Get handles GET /cards/get/{id}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := cardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	card, err := h.cardService.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardToResponse(card))
}

// List handles GET /cards/list
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	query, err := h.parseListQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.cardService.List(r.Context(), caller, query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPaginatedResult(page, dto.CardToResponse))
}

// Update handles PUT /cards/update/{id}
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := cardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	input := cards.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if req.Status != nil {
		status, ok := models.ParseCardStatus(*req.Status)
		if !ok {
			writeError(w, r, h.logger, invalidStatus(*req.Status))
			return
		}
		input.Status = &status
	}

	card, err := h.cardService.Update(r.Context(), caller, id, input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardToResponse(card))
}

// Delete handles DELETE /cards/delete/{id}
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := cardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.cardService.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// History handles GET /cards/history/{id}
func (h *CardHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := cardID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	params, err := h.pages.parse(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.cardService.History(r.Context(), caller, id, params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPaginatedResult(page, dto.CardEventToResponse))
}

func (h *CardHandler) parseListQuery(r *http.Request) (cards.ListQuery, error) {
	q := r.URL.Query()

	var query cards.ListQuery
	var err error

	if query.Page, err = h.pages.parse(q); err != nil {
		return query, err
	}

	query.Name = q.Get("name")
	query.Color = q.Get("color")

	if raw := q.Get("status"); raw != "" {
		status, ok := models.ParseCardStatus(raw)
		if !ok {
			return query, invalidStatus(raw)
		}
		query.Status = &status
	}

	if query.FromDate, err = parseDate(q, "fromDate", false); err != nil {
		return query, err
	}
	if query.ToDate, err = parseDate(q, "toDate", true); err != nil {
		return query, err
	}

	if query.SortBy, err = cards.ParseSortKey(q.Get("sortBy")); err != nil {
		return query, err
	}

	return query, nil
}

func (h *CardHandler) caller(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperr.Unauthenticated("Unauthorized"))
	}
	return caller, ok
}

func invalidStatus(raw string) error {
	return apperr.BadRequest("%q is not a valid status. Must be one of: ToDo, InProgress, Done", raw)
}
