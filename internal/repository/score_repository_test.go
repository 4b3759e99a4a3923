package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryAggregateAllTerms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	rows := sqlmock.NewRows([]string{"total_weighted", "total_credits", "count"}).AddRow(68.0, 9.0, 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(sc.score * su.credit), 0)")).
		WithArgs("st-1").
		WillReturnRows(rows)

	agg, err := repo.Aggregate(context.Background(), "st-1", "")
	require.NoError(t, err)
	require.Equal(t, 68.0, agg.TotalWeighted)
	require.Equal(t, 9.0, agg.TotalCredits)
	require.Equal(t, 3, agg.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryAggregateScopedToTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	rows := sqlmock.NewRows([]string{"total_weighted", "total_credits", "count"}).AddRow(0.0, 0.0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("AND sc.term = $2")).
		WithArgs("st-1", "2025-1").
		WillReturnRows(rows)

	agg, err := repo.Aggregate(context.Background(), "st-1", "2025-1")
	require.NoError(t, err)
	require.Equal(t, 0.0, agg.TotalCredits)
	require.Equal(t, 0, agg.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryTripleExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM scores WHERE student_id = $1 AND subject_id = $2 AND term = $3")).
		WithArgs("st-1", "su-1", "2025-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.TripleExists(context.Background(), "st-1", "su-1", "2025-1", "")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $4")).
		WithArgs("st-1", "su-1", "2025-1", "sc-9").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.TripleExists(context.Background(), "st-1", "su-1", "2025-1", "sc-9")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scores")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	score := &models.Score{StudentID: "st-1", SubjectID: "su-1", Term: "2025-1", Score: 8.5}
	require.NoError(t, repo.Create(context.Background(), score))
	require.NotEmpty(t, score.ID)
	require.False(t, score.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryListByStudentTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	cols := []string{"id", "student_id", "subject_id", "term", "score", "note", "created_at", "updated_at", "student_name", "student_number", "subject_name", "subject_code", "subject_credit"}
	now := time.Now()
	rows := sqlmock.NewRows(cols).
		AddRow("sc-1", "st-1", "su-1", "2025-1", 8.5, "", now, now, "Alice", "SV001", "Algorithms", "ALGO", 3.0).
		AddRow("sc-2", "st-1", "su-2", "2025-1", 7.0, "", now, now, "Alice", "SV001", "Databases", "DB", 4.0)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY su.code ASC")).
		WithArgs("st-1", "2025-1").
		WillReturnRows(rows)

	scores, err := repo.ListByStudentTerm(context.Background(), "st-1", "2025-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, "ALGO", *scores[0].SubjectCode)
	require.NoError(t, mock.ExpectationsWereMet())
}
