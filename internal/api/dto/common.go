package dto

import "github.com/hugh/cardboard/internal/pagination"

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// PaginatedResult is the page envelope on the wire.
type PaginatedResult[T any] struct {
	Data            []T   `json:"data"`
	TotalCount      int64 `json:"totalCount"`
	PageIndex       int   `json:"pageIndex"`
	PageSize        int   `json:"pageSize"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPaginatedResult maps every item of page with fn.
func NewPaginatedResult[T, U any](page pagination.Page[T], fn func(*T) U) PaginatedResult[U] {
	mapped := pagination.Map(page, fn)
	return PaginatedResult[U]{
		Data:            mapped.Items,
		TotalCount:      mapped.TotalCount,
		PageIndex:       mapped.PageIndex,
		PageSize:        mapped.PageSize,
		HasNextPage:     mapped.HasNextPage,
		HasPreviousPage: mapped.HasPreviousPage,
	}
}
