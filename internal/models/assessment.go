package models

import "time"

// AssessmentEntry is one graded piece of work for an enrollment. Weight is
// its percentage contribution to the final grade; weights across an
// enrollment need not sum to 100, the aggregator normalizes by the total
// weight actually present.
type AssessmentEntry struct {
	ID            string    `db:"id" json:"id"`
	EnrollmentID  string    `db:"enrollment_id" json:"enrollment_id"`
	Name          string    `db:"name" json:"name"`
	MarksObtained float64   `db:"marks_obtained" json:"marks_obtained"`
	TotalMarks    float64   `db:"total_marks" json:"total_marks"`
	Weight        float64   `db:"weight" json:"weight"`
	GradedBy      *string   `db:"graded_by" json:"graded_by,omitempty"`
	Comments      string    `db:"comments" json:"comments"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Percentage returns the entry's raw score as a percentage.
func (a *AssessmentEntry) Percentage() float64 {
	if a.TotalMarks > 0 {
		return a.MarksObtained / a.TotalMarks * 100
	}
	return 0
}

// GradePreview is the current weighted standing of an enrollment before
// finalization.
type GradePreview struct {
	EnrollmentID string  `json:"enrollment_id"`
	Percentage   float64 `json:"percentage"`
	Letter       string  `json:"letter"`
	GradePoints  float64 `json:"grade_points"`
	EntryCount   int     `json:"entry_count"`
}
