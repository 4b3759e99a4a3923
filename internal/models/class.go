package models

import "time"

// Class represents a class (cohort) record. Name is unique.
type Class struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Year       *int      `db:"year" json:"year,omitempty"`
	Department string    `db:"department" json:"department,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassFilter captures list criteria for classes.
type ClassFilter struct {
	Search     string
	Department string
	Year       *int
	ListParams
}
