package models

import "time"

// AcademicStatus is the derived standing of a student.
type AcademicStatus string

// GRADUATED and WITHDRAWN are administrative and never overwritten by GPA
// recomputation; ACTIVE and SUSPENDED are derived from the GPA.
const (
	AcademicStatusActive    AcademicStatus = "ACTIVE"
	AcademicStatusSuspended AcademicStatus = "SUSPENDED"
	AcademicStatusGraduated AcademicStatus = "GRADUATED"
	AcademicStatusWithdrawn AcademicStatus = "WITHDRAWN"
)

// Student represents a learner registered in the institution. GPA and
// AcademicStatus are derived values owned by the GPA recomputation; they are
// never hand-set during normal operation.
type Student struct {
	ID             string         `db:"id" json:"id"`
	StudentNo      string         `db:"student_no" json:"student_no"`
	FullName       string         `db:"full_name" json:"full_name"`
	Email          string         `db:"email" json:"email"`
	EnrolledSince  time.Time      `db:"enrolled_since" json:"enrolled_since"`
	GPA            float64        `db:"gpa" json:"gpa"`
	AcademicStatus AcademicStatus `db:"academic_status" json:"academic_status"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search         string
	AcademicStatus AcademicStatus
	Active         *bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// AcademicSummary is the cached read model for a student's standing.
type AcademicSummary struct {
	StudentID        string         `json:"student_id"`
	GPA              float64        `json:"gpa"`
	AcademicStatus   AcademicStatus `json:"academic_status"`
	CompletedCredits int            `json:"completed_credits"`
	CompletedCourses int            `json:"completed_courses"`
	ComputedAt       time.Time      `json:"computed_at"`
}
