package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type scoreRepository interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ScoreDetail, error)
	TripleExists(ctx context.Context, studentID, subjectID, term string, excludeID string) (bool, error)
	Create(ctx context.Context, score *models.Score) error
	Update(ctx context.Context, score *models.Score) error
	Delete(ctx context.Context, id string) error
	ListByStudentTerm(ctx context.Context, studentID, term string) ([]models.ScoreDetail, error)
	Aggregate(ctx context.Context, studentID, term string) (*models.GPAAggregate, error)
}

type subjectRefChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type gpaCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// CreateScoreRequest holds payload for recording a grade.
type CreateScoreRequest struct {
	StudentID string   `json:"studentId" validate:"required,uuid"`
	SubjectID string   `json:"subjectId" validate:"required,uuid"`
	Term      string   `json:"term" validate:"required"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=10"`
	Note      string   `json:"note"`
}

// UpdateScoreRequest holds payload for changing a grade. Absent fields keep
// their stored value.
type UpdateScoreRequest struct {
	StudentID *string  `json:"studentId" validate:"omitempty,uuid"`
	SubjectID *string  `json:"subjectId" validate:"omitempty,uuid"`
	Term      *string  `json:"term" validate:"omitempty,min=1"`
	Score     *float64 `json:"score" validate:"omitempty,gte=0,lte=10"`
	Note      *string  `json:"note"`
}

// ScoreService handles grade use-cases and GPA aggregation.
type ScoreService struct {
	repo      scoreRepository
	students  studentRefChecker
	subjects  subjectRefChecker
	cache     gpaCache
	metrics   cacheMetrics
	gpaTTL    time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs the score service. The cache and metrics
// collaborators may be nil.
func NewScoreService(repo scoreRepository, students studentRefChecker, subjects subjectRefChecker, cache gpaCache, metrics cacheMetrics, gpaTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{
		repo:      repo,
		students:  students,
		subjects:  subjects,
		cache:     cache,
		metrics:   metrics,
		gpaTTL:    gpaTTL,
		validator: validate,
		logger:    logger,
	}
}

// List returns scores matching the filter with pagination metadata.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, *models.Pagination, error) {
	scores, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Get returns a single score with joined details.
func (s *ScoreService) Get(ctx context.Context, id string) (*models.ScoreDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	return detail, nil
}

// Create records a grade after verifying both references and triple
// uniqueness.
func (s *ScoreService) Create(ctx context.Context, req CreateScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if err := s.checkStudentRef(ctx, req.StudentID); err != nil {
		return nil, err
	}
	if err := s.checkSubjectRef(ctx, req.SubjectID); err != nil {
		return nil, err
	}

	exists, err := s.repo.TripleExists(ctx, req.StudentID, req.SubjectID, req.Term, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate score")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "score already exists for this student, subject and term")
	}

	score := &models.Score{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Term:      req.Term,
		Score:     *req.Score,
		Note:      req.Note,
	}
	if err := s.repo.Create(ctx, score); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "score already exists for this student, subject and term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create score")
	}

	s.invalidateGPA(ctx, score.StudentID)
	return score, nil
}

// Update modifies a grade, re-validating references and triple uniqueness
// when the triple changes.
func (s *ScoreService) Update(ctx context.Context, id string, req UpdateScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	score := detail.Score
	previousStudent := score.StudentID

	if req.StudentID != nil && *req.StudentID != score.StudentID {
		if err := s.checkStudentRef(ctx, *req.StudentID); err != nil {
			return nil, err
		}
		score.StudentID = *req.StudentID
	}
	if req.SubjectID != nil && *req.SubjectID != score.SubjectID {
		if err := s.checkSubjectRef(ctx, *req.SubjectID); err != nil {
			return nil, err
		}
		score.SubjectID = *req.SubjectID
	}
	if req.Term != nil {
		score.Term = *req.Term
	}
	if req.Score != nil {
		score.Score = *req.Score
	}
	if req.Note != nil {
		score.Note = *req.Note
	}

	exists, err := s.repo.TripleExists(ctx, score.StudentID, score.SubjectID, score.Term, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate score")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "score already exists for this student, subject and term")
	}

	if err := s.repo.Update(ctx, &score); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "score already exists for this student, subject and term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update score")
	}

	s.invalidateGPA(ctx, previousStudent)
	if score.StudentID != previousStudent {
		s.invalidateGPA(ctx, score.StudentID)
	}
	return &score, nil
}

// Delete removes a grade.
func (s *ScoreService) Delete(ctx context.Context, id string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score")
	}
	s.invalidateGPA(ctx, detail.StudentID)
	return nil
}

// TermSheet returns a student's scores for one term with subject info joined.
func (s *ScoreService) TermSheet(ctx context.Context, studentID, term string) (*models.TermSheet, error) {
	scores, err := s.repo.ListByStudentTerm(ctx, studentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term scores")
	}
	if scores == nil {
		scores = []models.ScoreDetail{}
	}
	return &models.TermSheet{Data: scores, Count: len(scores)}, nil
}

// GPA computes the credit-weighted average for a student, optionally scoped to
// one term. The GPA field is null when no credits match.
func (s *ScoreService) GPA(ctx context.Context, studentID, term string) (*models.GPAResult, error) {
	resultTerm := term
	if resultTerm == "" {
		resultTerm = "ALL"
	}
	key := fmt.Sprintf("gpa:%s:%s", studentID, resultTerm)

	if s.cache != nil {
		var cached models.GPAResult
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.recordCache(true)
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("gpa cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.recordCache(false)
	}

	agg, err := s.repo.Aggregate(ctx, studentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute gpa")
	}

	result := &models.GPAResult{
		TotalCredits: agg.TotalCredits,
		Count:        agg.Count,
		Term:         resultTerm,
	}
	if agg.TotalCredits > 0 {
		gpa := math.Round(agg.TotalWeighted/agg.TotalCredits*100) / 100
		result.GPA = &gpa
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.gpaTTL); err != nil {
			s.logger.Warn("gpa cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func (s *ScoreService) invalidateGPA(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("gpa:%s:*", studentID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("gpa cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (s *ScoreService) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
}

func (s *ScoreService) checkStudentRef(ctx context.Context, id string) error {
	exists, err := s.students.Exists(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate studentId")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrInvalidReference, "invalid studentId")
	}
	return nil
}

func (s *ScoreService) checkSubjectRef(ctx context.Context, id string) error {
	exists, err := s.subjects.Exists(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subjectId")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrInvalidReference, "invalid subjectId")
	}
	return nil
}
