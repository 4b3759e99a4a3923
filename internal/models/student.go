package models

import "time"

// Student represents a student record. StudentNumber and Email are unique;
// ClassID is a nullable application-level reference (the store enforces no
// foreign keys).
type Student struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	StudentNumber string     `db:"student_number" json:"studentId"`
	Email         string     `db:"email" json:"email"`
	Gender        string     `db:"gender" json:"gender,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	ClassID       *string    `db:"class_id" json:"classId,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// StudentDetail joins the owning class, when any.
type StudentDetail struct {
	Student
	ClassName       *string `db:"class_name" json:"className,omitempty"`
	ClassDepartment *string `db:"class_department" json:"classDepartment,omitempty"`
	ClassYear       *int    `db:"class_year" json:"classYear,omitempty"`
}

// StudentFilter captures list criteria for students.
type StudentFilter struct {
	Search  string
	ClassID string
	Gender  string
	ListParams
}
