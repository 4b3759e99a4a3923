package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// ScoreRepository manages persistence for scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

var scoreSorts = map[string]string{
	"term":      "sc.term",
	"score":     "sc.score",
	"createdAt": "sc.created_at",
	"updatedAt": "sc.updated_at",
}

const scoreDetailColumns = `sc.id, sc.student_id, sc.subject_id, sc.term, sc.score, sc.note, sc.created_at, sc.updated_at,
        st.name AS student_name, st.student_number AS student_number,
        su.name AS subject_name, su.code AS subject_code, su.credit AS subject_credit`

const scoreDetailJoins = `FROM scores sc
        LEFT JOIN students st ON st.id = sc.student_id
        LEFT JOIN subjects su ON su.id = sc.subject_id`

// List returns scores matching the filter with student and subject joined.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error) {
	base := scoreDetailJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("sc.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("sc.term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	column, order := parseSort(filter.Sort, scoreSorts, "sc.created_at")
	_, limit, offset := normalizePage(filter.ListParams)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", scoreDetailColumns, base, column, order, limit, offset)
	var scores []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scores: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}
	return scores, total, nil
}

// FindByID fetches a score with joined details.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.ScoreDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sc.id = $1", scoreDetailColumns, scoreDetailJoins)
	var detail models.ScoreDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// TripleExists checks whether a grade already exists for the
// (student, subject, term) triple, optionally excluding a score ID.
func (r *ScoreRepository) TripleExists(ctx context.Context, studentID, subjectID, term string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM scores WHERE student_id = $1 AND subject_id = $2 AND term = $3"
	args := []interface{}{studentID, subjectID, term}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check score triple: %w", err)
	}
	return true, nil
}

// Create inserts a new score record. A racing duplicate triple surfaces as a
// unique violation from the store.
func (r *ScoreRepository) Create(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO scores (id, student_id, subject_id, term, score, note, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :term, :score, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("create score: %w", err)
	}
	return nil
}

// Update modifies an existing score record.
func (r *ScoreRepository) Update(ctx context.Context, score *models.Score) error {
	score.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scores SET student_id = :student_id, subject_id = :subject_id, term = :term, score = :score, note = :note, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

// Delete removes a score record.
func (r *ScoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scores WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}

// ListByStudentTerm returns a student's scores for one term with subject
// info, ordered by subject code.
func (r *ScoreRepository) ListByStudentTerm(ctx context.Context, studentID, term string) ([]models.ScoreDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE sc.student_id = $1 AND sc.term = $2 ORDER BY su.code ASC", scoreDetailColumns, scoreDetailJoins)
	var scores []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &scores, query, studentID, term); err != nil {
		return nil, fmt.Errorf("list term scores: %w", err)
	}
	return scores, nil
}

// Aggregate computes the credit-weighted sums for a student's scores,
// optionally restricted to one term. A student with no matching scores yields
// a zero-valued row, never an error.
func (r *ScoreRepository) Aggregate(ctx context.Context, studentID, term string) (*models.GPAAggregate, error) {
	query := `SELECT COALESCE(SUM(sc.score * su.credit), 0) AS total_weighted,
        COALESCE(SUM(su.credit), 0) AS total_credits,
        COUNT(sc.id) AS count
        FROM scores sc
        JOIN subjects su ON su.id = sc.subject_id
        WHERE sc.student_id = $1`
	args := []interface{}{studentID}
	if term != "" {
		query += " AND sc.term = $2"
		args = append(args, term)
	}

	var agg models.GPAAggregate
	if err := r.db.GetContext(ctx, &agg, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate scores: %w", err)
	}
	return &agg, nil
}
