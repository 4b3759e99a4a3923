package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByNumber(ctx context.Context, number string, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type classRefChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name          string     `json:"name" validate:"required"`
	StudentNumber string     `json:"studentId" validate:"required"`
	Email         string     `json:"email" validate:"required,email"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	ClassID       *string    `json:"classId" validate:"omitempty,uuid"`
}

// UpdateStudentRequest holds payload for updating students. Absent fields
// keep their stored value.
type UpdateStudentRequest struct {
	Name          *string    `json:"name" validate:"omitempty,min=1"`
	StudentNumber *string    `json:"studentId" validate:"omitempty,min=1"`
	Email         *string    `json:"email" validate:"omitempty,email"`
	Gender        *string    `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth   *time.Time `json:"dateOfBirth"`
	ClassID       *string    `json:"classId" validate:"omitempty,uuid"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	classes   classRefChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes classRefChecker, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.checkUnique(ctx, req.StudentNumber, email, ""); err != nil {
		return nil, err
	}
	if err := s.checkClassRef(ctx, req.ClassID); err != nil {
		return nil, err
	}

	student := &models.Student{
		Name:          req.Name,
		StudentNumber: req.StudentNumber,
		Email:         email,
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		ClassID:       req.ClassID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student := detail.Student

	number := student.StudentNumber
	if req.StudentNumber != nil {
		number = *req.StudentNumber
	}
	email := student.Email
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if err := s.checkUnique(ctx, number, email, id); err != nil {
		return nil, err
	}
	if req.ClassID != nil {
		if err := s.checkClassRef(ctx, req.ClassID); err != nil {
			return nil, err
		}
		student.ClassID = req.ClassID
	}

	student.StudentNumber = number
	student.Email = email
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		student.DateOfBirth = req.DateOfBirth
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

func (s *StudentService) checkUnique(ctx context.Context, number, email, excludeID string) error {
	exists, err := s.repo.ExistsByNumber(ctx, number, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student number already exists")
	}
	exists, err = s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student email already exists")
	}
	return nil
}

func (s *StudentService) checkClassRef(ctx context.Context, classID *string) error {
	if classID == nil {
		return nil
	}
	exists, err := s.classes.Exists(ctx, *classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate classId")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrInvalidReference, "invalid classId")
	}
	return nil
}
