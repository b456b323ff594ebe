package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. COMPLETED and FAILED are terminal.
const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusFailed    EnrollmentStatus = "FAILED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s EnrollmentStatus) IsTerminal() bool {
	return s == EnrollmentStatusCompleted || s == EnrollmentStatusFailed
}

// Enrollment links a student to a section. Unique per (student, section).
// Grade and GradePoints are set exactly once at finalization.
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	SectionID   string           `db:"section_id" json:"section_id"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolled_at"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	Grade       *string          `db:"grade" json:"grade,omitempty"`
	GradePoints *float64         `db:"grade_points" json:"grade_points,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student, section and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string   `db:"student_name" json:"student_name"`
	StudentNo    string   `db:"student_no" json:"student_no"`
	SectionCode  string   `db:"section_code" json:"section_code"`
	CourseCode   string   `db:"course_code" json:"course_code"`
	CourseName   string   `db:"course_name" json:"course_name"`
	Semester     Semester `db:"semester" json:"semester"`
	AcademicYear int      `db:"academic_year" json:"academic_year"`
}

// EnrollmentWithSchedule pairs an active enrollment with its section's
// meeting slots for schedule-conflict checks.
type EnrollmentWithSchedule struct {
	Enrollment
	SectionSchedule MeetingSlots `db:"section_schedule" json:"section_schedule"`
}

// CompletedCredit is one finalized enrollment's contribution to the GPA:
// grade points weighted by the course's credit hours.
type CompletedCredit struct {
	EnrollmentID string  `db:"enrollment_id" json:"enrollment_id"`
	CourseID     string  `db:"course_id" json:"course_id"`
	GradePoints  float64 `db:"grade_points" json:"grade_points"`
	Credits      int     `db:"credits" json:"credits"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	SectionID    string
	Status       EnrollmentStatus
	Semester     Semester
	AcademicYear int
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
