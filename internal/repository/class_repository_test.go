package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestClassRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	now := time.Now()
	year := 2025
	rows := sqlmock.NewRows([]string{"id", "name", "year", "department", "created_at", "updated_at"}).
		AddRow("c1", "10A", year, "Science", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, year, department, created_at, updated_at FROM classes")).
		WithArgs("%10%", 2025).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes")).
		WithArgs("%10%", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), models.ClassFilter{
		Search:     "10",
		Year:       &year,
		ListParams: models.ListParams{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryExistsByNameCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM classes WHERE LOWER(name) = LOWER($1)")).
		WithArgs("10a").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "10a", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCountStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountStudents(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositorySortWhitelistFallsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "year", "department", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ClassFilter{
		ListParams: models.ListParams{Page: 1, Limit: 10, Sort: "-injected; DROP TABLE"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
