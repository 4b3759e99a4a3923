package models

import "time"

// Subject represents a course subject. Code is unique and stored uppercase
// with whitespace stripped.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Credit    float64   `db:"credit" json:"credit"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SubjectFilter captures list criteria for subjects.
type SubjectFilter struct {
	Search    string
	CreditMin *float64
	CreditMax *float64
	ListParams
}
