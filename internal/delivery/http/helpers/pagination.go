package helpers

import (
	"net/http"
	"strconv"

	"gatherplan/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the request query string.
// Missing or invalid values fall back to defaults; page_size is capped at
// MaxPageSize.
func ParsePagination(r *http.Request) domain.PaginationParams {
	page := queryInt(r, "page", DefaultPage)
	size := queryInt(r, "page_size", DefaultPageSize)
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return domain.PaginationParams{Page: page, PageSize: size}
}

// queryInt reads a positive integer query parameter, falling back to def on
// missing, non-numeric, or non-positive values.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size,
// and total count. TotalPages is ceiling(total / pageSize), or 0 when
// pageSize is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
