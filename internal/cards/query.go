package cards

import (
	"strings"
	"time"

	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/internal/pagination"
	"gorm.io/gorm"
)

type SortKey string

const (
	SortNone   SortKey = ""
	SortName   SortKey = "Name"
	SortColor  SortKey = "Color"
	SortStatus SortKey = "Status"
	SortDate   SortKey = "Date"
)

// ParseSortKey matches case-insensitively. An empty string selects the
// default creation order; anything else unknown is a BadRequest.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortNone, nil
	}
	for _, k := range []SortKey{SortName, SortColor, SortStatus, SortDate} {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return SortNone, apperr.BadRequest("%q is not a valid sort key. Must be one of: Name, Color, Status, Date", s)
}

// ListQuery is the filter, sort and page plan for a card listing. Zero
// values mean "no filter".
type ListQuery struct {
	Name     string
	Color    string
	Status   *models.CardStatus
	FromDate *time.Time
	ToDate   *time.Time
	SortBy   SortKey
	Page     pagination.Params
}

// Scopes returns the narrowing steps in pipeline order: caller scope, name,
// color, status, date range, then ordering. Pagination is applied by the
// caller on top.
func (q ListQuery) Scopes(caller auth.Caller) []func(*gorm.DB) *gorm.DB {
	return []func(*gorm.DB) *gorm.DB{
		VisibleTo(caller),
		NameContains(q.Name),
		ColorEquals(q.Color),
		StatusEquals(q.Status),
		CreatedBetween(q.FromDate, q.ToDate),
		OrderBy(q.SortBy),
	}
}

// VisibleTo restricts a Member to its own cards. Admin sees all.
func VisibleTo(caller auth.Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if caller.IsAdmin() {
			return db
		}
		return db.Where("cards.user_id = ?", caller.ID)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NameContains is a case-insensitive substring match.
func NameContains(fragment string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(fragment) == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(fragment)) + "%"
		return db.Where(`LOWER(cards.name) LIKE ? ESCAPE '\'`, pattern)
	}
}

// ColorEquals is a case-insensitive exact match. Cards without a color never
// match a non-empty filter.
func ColorEquals(color string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(color) == "" {
			return db
		}
		return db.Where("cards.color IS NOT NULL AND LOWER(cards.color) = ?", strings.ToLower(strings.TrimSpace(color)))
	}
}

func StatusEquals(status *models.CardStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == nil {
			return db
		}
		return db.Where("cards.status = ?", *status)
	}
}

// CreatedBetween applies inclusive bounds; either side may be absent.
func CreatedBetween(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("cards.created_at >= ?", from.UTC())
		}
		if to != nil {
			db = db.Where("cards.created_at <= ?", to.UTC())
		}
		return db
	}
}

// OrderBy sorts ascending on the key. Ties, and the unsorted case, fall back
// to creation order and then id so pages are stable.
func OrderBy(key SortKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch key {
		case SortName:
			db = db.Order("LOWER(cards.name) ASC")
		case SortColor:
			// colorless cards last on every backend
			db = db.Order("CASE WHEN cards.color IS NULL THEN 1 ELSE 0 END ASC").Order("LOWER(cards.color) ASC")
		case SortStatus:
			db = db.Order("cards.status ASC")
		}
		return db.Order("cards.created_at ASC").Order("cards.id ASC")
	}
}
