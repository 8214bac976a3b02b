// Package pagination provides page-based pagination helpers shared by list
// endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageSize is used when the client does not provide a page size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a client can request.
	MaxPageSize = 100
)

// Params holds normalised pagination parameters.
type Params struct {
	Page     int
	PageSize int
}

// FromRequest parses page and page_size query parameters, clamping them to
// sane bounds. Invalid values fall back to defaults.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, PageSize: DefaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			p.Page = page
		}
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			if size > MaxPageSize {
				size = MaxPageSize
			}
			p.PageSize = size
		}
	}

	return p
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the SQL limit for the current page.
func (p Params) Limit() int {
	return p.PageSize
}

// TotalPages computes the number of pages for a total row count.
func (p Params) TotalPages(total int) int {
	if total == 0 {
		return 0
	}
	pages := total / p.PageSize
	if total%p.PageSize != 0 {
		pages++
	}
	return pages
}
