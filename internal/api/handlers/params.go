package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/pagination"
)

// PageDefaults configures page size fallback and cap for list endpoints.
type PageDefaults struct {
	DefaultSize int
	MaxSize     int
}

func (d PageDefaults) parse(q url.Values) (pagination.Params, error) {
	var p pagination.Params
	var err error
	if p.PageIndex, err = optionalInt(q, "pageIndex"); err != nil {
		return p, err
	}
	if p.PageSize, err = optionalInt(q, "pageSize"); err != nil {
		return p, err
	}
	p.Normalize(d.DefaultSize, d.MaxSize)
	return p, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("%s must be an integer", key)
	}
	return n, nil
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func parseDate(q url.Values, key string, upper bool) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, apperr.BadRequest("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", key)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// cardID reads the {id} path segment. An id that cannot name a card is
// reported as not found.
func cardID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.NotFound("The card with Id %s was not found", raw)
	}
	return id, nil
}
