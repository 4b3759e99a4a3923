package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestParseSort(t *testing.T) {
	allowed := map[string]string{"name": "name", "createdAt": "created_at"}

	column, order := parseSort("name", allowed, "created_at")
	assert.Equal(t, "name", column)
	assert.Equal(t, "ASC", order)

	column, order = parseSort("-createdAt", allowed, "created_at")
	assert.Equal(t, "created_at", column)
	assert.Equal(t, "DESC", order)

	column, order = parseSort("password; --", allowed, "created_at")
	assert.Equal(t, "created_at", column)
	assert.Equal(t, "DESC", order)
}

func TestNormalizePage(t *testing.T) {
	page, limit, offset := normalizePage(models.ListParams{Page: 3, Limit: 10})
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	page, limit, offset = normalizePage(models.ListParams{Page: -1, Limit: 0})
	assert.Equal(t, 1, page)
	assert.Equal(t, models.DefaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	// Over-cap limits clamp to the shared maximum so the offset matches the
	// page size reported in the response envelope.
	page, limit, offset = normalizePage(models.ListParams{Page: 2, Limit: 150})
	assert.Equal(t, 2, page)
	assert.Equal(t, models.MaxPageLimit, limit)
	assert.Equal(t, models.MaxPageLimit, offset)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
