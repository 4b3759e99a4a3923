package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds pagination metadata, normalising page and limit the
// same way the repositories do so the envelope always describes the rows
// actually returned.
func NewPagination(total, page, limit int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

const (
	// DefaultPageLimit is applied when a list request carries no limit.
	DefaultPageLimit = 10
	// MaxPageLimit caps the page size a caller may request.
	MaxPageLimit = 100
)

// ListParams captures the common list query contract: 1-based page, page
// size, and a sort field with an optional leading '-' for descending order.
type ListParams struct {
	Page  int
	Limit int
	Sort  string
}
