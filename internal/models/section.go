package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/campushq/sis-api/pkg/errors"
)

// SectionStatus represents the lifecycle of a section.
type SectionStatus string

// Possible section statuses. Cancelled is terminal and only set through an
// administrative action, never by capacity accounting.
const (
	SectionStatusOpen      SectionStatus = "OPEN"
	SectionStatusClosed    SectionStatus = "CLOSED"
	SectionStatusCancelled SectionStatus = "CANCELLED"
)

// Semester identifies the term a section runs in.
type Semester string

const (
	SemesterFall   Semester = "FALL"
	SemesterSpring Semester = "SPRING"
	SemesterSummer Semester = "SUMMER"
)

// MeetingSlot is one weekly meeting window. Times are zero-padded "15:04"
// strings so lexicographic order matches chronological order.
type MeetingSlot struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// MeetingSlots is stored as a JSONB column.
type MeetingSlots []MeetingSlot

// Value implements driver.Valuer.
func (m MeetingSlots) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MeetingSlots) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported meeting slots source type %T", src)
	}
}

// Section is one scheduled offering of a course. Seat accounting lives
// exclusively on this aggregate: CurrentEnrollment and Status move only
// through IncrementEnrollment and DecrementEnrollment.
type Section struct {
	ID                string        `db:"id" json:"id"`
	CourseID          string        `db:"course_id" json:"course_id"`
	Code              string        `db:"code" json:"code"`
	Semester          Semester      `db:"semester" json:"semester"`
	AcademicYear      int           `db:"academic_year" json:"academic_year"`
	InstructorID      *string       `db:"instructor_id" json:"instructor_id,omitempty"`
	MaxCapacity       int           `db:"max_capacity" json:"max_capacity"`
	CurrentEnrollment int           `db:"current_enrollment" json:"current_enrollment"`
	Schedule          MeetingSlots  `db:"schedule" json:"schedule"`
	Status            SectionStatus `db:"status" json:"status"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// SectionDetail enriches Section with course info.
type SectionDetail struct {
	Section
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseName    string `db:"course_name" json:"course_name"`
	CourseCredits int    `db:"course_credits" json:"course_credits"`
}

// SectionFilter defines filter criteria for listing sections.
type SectionFilter struct {
	CourseID     string
	Semester     Semester
	AcademicYear int
	Status       SectionStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// AvailableSeats returns remaining capacity.
func (s *Section) AvailableSeats() int {
	return s.MaxCapacity - s.CurrentEnrollment
}

// IsFull reports whether the section is at capacity.
func (s *Section) IsFull() bool {
	return s.CurrentEnrollment >= s.MaxCapacity
}

// IncrementEnrollment reserves one seat. Reaching capacity flips OPEN to
// CLOSED. Cancelled sections reject the reservation outright.
func (s *Section) IncrementEnrollment() error {
	if s.Status == SectionStatusCancelled {
		return appErrors.ErrSectionUnavailable
	}
	if s.IsFull() {
		return appErrors.ErrSectionFull
	}
	s.CurrentEnrollment++
	if s.IsFull() && s.Status == SectionStatusOpen {
		s.Status = SectionStatusClosed
	}
	return nil
}

// DecrementEnrollment releases one seat, floored at zero. Dropping below
// capacity reopens a CLOSED section; CANCELLED status is never altered.
func (s *Section) DecrementEnrollment() {
	if s.CurrentEnrollment > 0 {
		s.CurrentEnrollment--
	}
	if s.Status == SectionStatusClosed && !s.IsFull() {
		s.Status = SectionStatusOpen
	}
}
