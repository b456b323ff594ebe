package models

import "time"

// Course defines an academic course in the catalog.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Credits     int       `db:"credits" json:"credits"`
	Department  string    `db:"department" json:"department"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Prerequisites are loaded in stored order. The prerequisite graph is
	// directed and non-symmetric; callers maintain it as a DAG.
	Prerequisites []CourseRef `json:"prerequisites,omitempty"`
}

// CourseRef is a lightweight reference to a course, used in prerequisite
// listings and error payloads.
type CourseRef struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Department string
	Search     string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
