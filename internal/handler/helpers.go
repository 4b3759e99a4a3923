package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// parseListParams reads the common page/limit/sort query contract.
func parseListParams(c *gin.Context) models.ListParams {
	params := models.ListParams{Page: 1, Limit: models.DefaultPageLimit, Sort: "-createdAt"}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(models.DefaultPageLimit))); err == nil && limit > 0 {
		if limit > models.MaxPageLimit {
			limit = models.MaxPageLimit
		}
		params.Limit = limit
	}
	if sort := strings.TrimSpace(c.Query("sort")); sort != "" {
		params.Sort = sort
	}
	return params
}

// pathID validates that the named path parameter is a well-formed UUID.
// Malformed IDs fail fast with 400 rather than surface as store errors.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid id"))
		return "", false
	}
	return id, true
}
