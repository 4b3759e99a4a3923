package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockClassRepo struct {
	classes      map[string]*models.Class
	names        map[string]bool
	studentCount int
	created      []*models.Class
	deleted      []string
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	var out []models.Class
	for _, c := range m.classes {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	return m.names[name], nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockClassRepo) CountStudents(ctx context.Context, classID string) (int, error) {
	return m.studentCount, nil
}

type mockStudentLister struct {
	students []models.StudentDetail
}

func (m *mockStudentLister) ListByClass(ctx context.Context, classID string, params models.ListParams) ([]models.StudentDetail, int, error) {
	return m.students, len(m.students), nil
}

func TestDeleteClassBlockedWhenInUse(t *testing.T) {
	repo := &mockClassRepo{
		classes:      map[string]*models.Class{"c1": {ID: "c1", Name: "10A"}},
		studentCount: 3,
	}
	svc := NewClassService(repo, &mockStudentLister{}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "class is in use by 3 student(s), remove or move them first", appErr.Message)
	assert.Empty(t, repo.deleted)
}

func TestDeleteClassSucceedsWhenEmpty(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]*models.Class{"c1": {ID: "c1", Name: "10A"}}}
	svc := NewClassService(repo, &mockStudentLister{}, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Equal(t, []string{"c1"}, repo.deleted)
}

func TestCreateClassDuplicateName(t *testing.T) {
	repo := &mockClassRepo{names: map[string]bool{"10A": true}}
	svc := NewClassService(repo, &mockStudentLister{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateClassRequest{Name: "10A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateClassRejectsYearOutOfRange(t *testing.T) {
	repo := &mockClassRepo{names: map[string]bool{}}
	svc := NewClassService(repo, &mockStudentLister{}, validator.New(), zap.NewNop())

	year := 1800
	_, err := svc.Create(context.Background(), CreateClassRequest{Name: "10A", Year: &year})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListStudentsUnknownClass(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, &mockStudentLister{}, validator.New(), zap.NewNop())

	_, _, err := svc.ListStudents(context.Background(), "missing", models.ListParams{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListStudentsReturnsRoster(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]*models.Class{"c1": {ID: "c1", Name: "10A"}}}
	lister := &mockStudentLister{students: []models.StudentDetail{
		{Student: models.Student{ID: "s1", Name: "Alice"}},
		{Student: models.Student{ID: "s2", Name: "Binh"}},
	}}
	svc := NewClassService(repo, lister, validator.New(), zap.NewNop())

	students, pagination, err := svc.ListStudents(context.Background(), "c1", models.ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 2, pagination.Total)
}
