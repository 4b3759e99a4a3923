package models

import "time"

// Score is one grade for a (student, subject, term) triple. The triple is
// unique: one grade per student per subject per term.
type Score struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"studentId"`
	SubjectID string    `db:"subject_id" json:"subjectId"`
	Term      string    `db:"term" json:"term"`
	Score     float64   `db:"score" json:"score"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ScoreDetail joins student and subject summaries. The joins are LEFT since
// the store keeps no foreign keys and a referenced record may have been
// removed out of band.
type ScoreDetail struct {
	Score
	StudentName   *string  `db:"student_name" json:"studentName,omitempty"`
	StudentNumber *string  `db:"student_number" json:"studentNumber,omitempty"`
	SubjectName   *string  `db:"subject_name" json:"subjectName,omitempty"`
	SubjectCode   *string  `db:"subject_code" json:"subjectCode,omitempty"`
	SubjectCredit *float64 `db:"subject_credit" json:"subjectCredit,omitempty"`
}

// ScoreFilter captures list criteria for scores.
type ScoreFilter struct {
	StudentID string
	SubjectID string
	Term      string
	ListParams
}

// GPAAggregate is the raw credit-weighted sum over a student's scores.
type GPAAggregate struct {
	TotalWeighted float64 `db:"total_weighted"`
	TotalCredits  float64 `db:"total_credits"`
	Count         int     `db:"count"`
}

// GPAResult is the API shape for a GPA computation. GPA is null, not zero,
// when no credits match.
type GPAResult struct {
	GPA          *float64 `json:"gpa"`
	TotalCredits float64  `json:"totalCredits"`
	Count        int      `json:"count"`
	Term         string   `json:"term"`
}

// TermSheet lists a student's scores for one term with subject info joined.
type TermSheet struct {
	Data  []ScoreDetail `json:"data"`
	Count int           `json:"count"`
}
