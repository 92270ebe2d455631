// Package pagination implements the page envelope shared by every list
// operation: a 1-based page cut over an ordered result set plus the
// navigation metadata computed from the pre-cut total.
package pagination

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPageIndex = 1
	DefaultPageSize  = 50
	MaxPageSize      = 500
)

type Params struct {
	PageIndex int
	PageSize  int
}

// Normalize falls back to defaults for non-positive values and caps the page
// size at maxSize. A zero defaultSize or maxSize selects the package constant.
func (p *Params) Normalize(defaultSize, maxSize int) {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if p.PageIndex < 1 {
		p.PageIndex = DefaultPageIndex
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
}

// Offset is the number of rows before the page. It saturates at
// math.MaxInt instead of wrapping, so a huge PageIndex lands past the end.
func (p Params) Offset() int {
	if p.PageIndex <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.PageIndex-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.PageIndex - 1) * p.PageSize
}

// hasNext reports pageIndex*pageSize < total without forming the product.
func hasNext(params Params, total int64) bool {
	if params.PageSize <= 0 || total <= 0 {
		return false
	}
	size := int64(params.PageSize)
	pages := total/size + min(total%size, 1)
	return int64(params.PageIndex) < pages
}

type Page[T any] struct {
	Items           []T
	TotalCount      int64
	PageIndex       int
	PageSize        int
	HasNextPage     bool
	HasPreviousPage bool
}

func NewPage[T any](items []T, totalCount int64, params Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:           items,
		TotalCount:      totalCount,
		PageIndex:       params.PageIndex,
		PageSize:        params.PageSize,
		HasNextPage:     hasNext(params, totalCount),
		HasPreviousPage: params.PageIndex > 1,
	}
}

// Map converts the items of a page, keeping its metadata.
func Map[T, U any](page Page[T], fn func(*T) U) Page[U] {
	out := make([]U, len(page.Items))
	for i := range page.Items {
		out[i] = fn(&page.Items[i])
	}
	return Page[U]{
		Items:           out,
		TotalCount:      page.TotalCount,
		PageIndex:       page.PageIndex,
		PageSize:        page.PageSize,
		HasNextPage:     page.HasNextPage,
		HasPreviousPage: page.HasPreviousPage,
	}
}

// Slice cuts an in-memory, already ordered set.
func Slice[T any](all []T, params Params) Page[T] {
	total := len(all)
	start := min(params.Offset(), total)
	end := start + max(0, min(params.PageSize, total-start))
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(items, int64(total), params)
}

// Find counts query, then loads the requested page of it. The query must
// already carry its ordering; Count ignores it. load scopes (preloads) apply
// to the page query only.
func Find[T any](ctx context.Context, query *gorm.DB, params Params, load ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	var total int64
	if err := query.WithContext(ctx).Count(&total).Error; err != nil {
		return Page[T]{}, fmt.Errorf("counting rows: %w", err)
	}

	var items []T
	if int64(params.Offset()) < total {
		if err := query.WithContext(ctx).
			Scopes(load...).
			Offset(params.Offset()).
			Limit(params.PageSize).
			Find(&items).Error; err != nil {
			return Page[T]{}, fmt.Errorf("loading page: %w", err)
		}
	}

	return NewPage(items, total, params), nil
}
