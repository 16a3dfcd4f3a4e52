package models

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200

	// MaxPage bounds the page number so the row offset never overflows.
	MaxPage = 1_000_000
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination builds list metadata for a normalised page request.
func NewPagination(page, limit, total int) *Pagination {
	page, limit = NormalizePage(page, limit)
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, TotalCount: total, TotalPages: pages}
}

// NormalizePage applies the 1-based page default and clamps the limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Offset returns the row offset for a 1-based page.
func Offset(page, limit int) int {
	page, limit = NormalizePage(page, limit)
	return (page - 1) * limit
}
