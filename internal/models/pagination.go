package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 1-based page selection.
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest clamps raw query values into a usable request.
func NewPageRequest(page, pageSize int) PageRequest {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// Offset is the SQL OFFSET for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of results plus the total row count.
type Page[T any] struct {
	Items []T
	Total int
	PageRequest
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Page*p.PageSize < p.Total
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool {
	return p.Page > 1
}
