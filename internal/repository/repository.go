package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// parseSort resolves a "-field" style sort token against a whitelist of
// JSON-facing names mapped to columns. Unknown fields fall back.
func parseSort(sort string, allowed map[string]string, fallback string) (string, string) {
	order := "ASC"
	if strings.HasPrefix(sort, "-") {
		order = "DESC"
		sort = sort[1:]
	}
	column, ok := allowed[sort]
	if !ok {
		return fallback, "DESC"
	}
	return column, order
}

// normalizePage clamps paging inputs and returns the SQL offset.
func normalizePage(params models.ListParams) (int, int, int) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}
	return page, limit, (page - 1) * limit
}

// IsUniqueViolation reports whether err is a Postgres unique-index violation.
// Unique indexes are the race-safe backstop behind the check-then-write
// sequences in the services.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
