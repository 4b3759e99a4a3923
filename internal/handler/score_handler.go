package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// ScoreHandler exposes score CRUD, term sheets and GPA endpoints.
type ScoreHandler struct {
	service *service.ScoreService
}

// NewScoreHandler constructs a score handler.
func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: svc}
}

// List returns scores matching the query filters.
func (h *ScoreHandler) List(c *gin.Context) {
	var filter models.ScoreFilter
	filter.StudentID = c.Query("studentId")
	filter.SubjectID = c.Query("subjectId")
	filter.Term = c.Query("term")
	filter.ListParams = parseListParams(c)

	scores, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, pagination)
}

// Get returns one score with joined details.
func (h *ScoreHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	score, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// Create records a grade.
func (h *ScoreHandler) Create(c *gin.Context) {
	var req service.CreateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	score, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, score)
}

// Update modifies a grade.
func (h *ScoreHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	score, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// Delete removes a grade.
func (h *ScoreHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TermSheet returns one student's scores for one term.
func (h *ScoreHandler) TermSheet(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	term := c.Param("term")
	if term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term is required"))
		return
	}
	sheet, err := h.service.TermSheet(c.Request.Context(), studentID, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// GPA returns the credit-weighted average for one student, optionally scoped
// to a term via the term query parameter.
func (h *ScoreHandler) GPA(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	result, err := h.service.GPA(c.Request.Context(), studentID, c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
