package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsEnrolled(ctx context.Context, studentID, sectionID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	ListEnrolledWithSchedule(ctx context.Context, studentID string, semester models.Semester, academicYear int) ([]models.EnrollmentWithSchedule, error)
	CompletedCourseIDs(ctx context.Context, studentID string) (map[string]bool, error)
}

type sectionStore interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	SaveCapacity(ctx context.Context, section *models.Section) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Prerequisites(ctx context.Context, courseID string) ([]models.CourseRef, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentMetrics interface {
	RecordEnrollmentDecision(outcome string)
}

type enrollmentNotifier interface {
	EnrollmentAdmitted(enrollmentID, studentID, sectionID string)
	EnrollmentDropped(enrollmentID, studentID, sectionID string)
}

// EnrollRequest describes an enrollment creation request.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

// ScheduleConflictDetail identifies the section clashing with the request.
type ScheduleConflictDetail struct {
	ConflictingSectionID string `json:"conflicting_section_id"`
}

// EnrollmentService admits and drops enrollments. All capacity mutation for
// a section is serialized through a per-section lock, and checks run in a
// fixed order: duplicate, capacity reservation, prerequisites, schedule.
// Any failure after the seat is reserved releases it before returning, so a
// rejected enrollment leaves no observable side effect.
type EnrollmentService struct {
	repo         enrollmentRepository
	sections     sectionStore
	courses      courseReader
	students     studentReader
	validator    *validator.Validate
	logger       *zap.Logger
	metrics      enrollmentMetrics
	notifier     enrollmentNotifier
	sectionLocks *keyedMutex
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, sections sectionStore, courses courseReader, students studentReader, validate *validator.Validate, logger *zap.Logger, metrics enrollmentMetrics, notifier enrollmentNotifier) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:         repo,
		sections:     sections,
		courses:      courses,
		students:     students,
		validator:    validate,
		logger:       logger,
		metrics:      metrics,
		notifier:     notifier,
		sectionLocks: newKeyedMutex(),
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns a single enrollment with context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Enroll admits a student into a section.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPrecondition, "student inactive")
	}

	// Capacity is the contended resource: take the section lock before
	// reading its seat count so concurrent requests serialize here.
	unlock := s.sectionLocks.Lock(req.SectionID)
	defer unlock()

	section, err := s.sections.FindByID(ctx, req.SectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	detail, err := s.enrollLocked(ctx, student, section)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordEnrollmentDecision(appErrors.FromError(err).Code)
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordEnrollmentDecision("admitted")
	}
	if s.notifier != nil {
		s.notifier.EnrollmentAdmitted(detail.ID, detail.StudentID, detail.SectionID)
	}
	s.logger.Info("enrollment admitted",
		zap.String("enrollment_id", detail.ID),
		zap.String("student_id", detail.StudentID),
		zap.String("section_id", detail.SectionID))
	return detail, nil
}

func (s *EnrollmentService) enrollLocked(ctx context.Context, student *models.Student, section *models.Section) (*models.EnrollmentDetail, error) {
	exists, err := s.repo.ExistsEnrolled(ctx, student.ID, section.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.ErrDuplicateEnrollment
	}

	// Reserve the seat before the remaining checks; a losing concurrent
	// request then observes the reservation, never a race on a free seat.
	if err := section.IncrementEnrollment(); err != nil {
		return nil, err
	}
	if err := s.sections.SaveCapacity(ctx, section); err != nil {
		section.DecrementEnrollment()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}

	prerequisites, err := s.courses.Prerequisites(ctx, section.CourseID)
	if err != nil {
		return nil, s.releaseSeat(ctx, section, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites"))
	}
	if len(prerequisites) > 0 {
		completed, err := s.repo.CompletedCourseIDs(ctx, student.ID)
		if err != nil {
			return nil, s.releaseSeat(ctx, section, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course history"))
		}
		if missing := MissingPrerequisites(prerequisites, completed); len(missing) > 0 {
			return nil, s.releaseSeat(ctx, section, appErrors.WithDetails(appErrors.ErrPrerequisitesNotMet, missing))
		}
	}

	concurrent, err := s.repo.ListEnrolledWithSchedule(ctx, student.ID, section.Semester, section.AcademicYear)
	if err != nil {
		return nil, s.releaseSeat(ctx, section, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule"))
	}
	for _, other := range concurrent {
		if SlotsConflict(section.Schedule, other.SectionSchedule) {
			return nil, s.releaseSeat(ctx, section, appErrors.WithDetails(appErrors.ErrScheduleConflict, ScheduleConflictDetail{ConflictingSectionID: other.SectionID}))
		}
	}

	enrollment := &models.Enrollment{StudentID: student.ID, SectionID: section.ID, Status: models.EnrollmentStatusEnrolled}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, s.releaseSeat(ctx, section, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment"))
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// releaseSeat compensates a reservation made for an enrollment that was
// subsequently rejected, then returns the original rejection.
func (s *EnrollmentService) releaseSeat(ctx context.Context, section *models.Section, cause error) error {
	section.DecrementEnrollment()
	if err := s.sections.SaveCapacity(ctx, section); err != nil {
		s.logger.Error("failed to release reserved seat",
			zap.String("section_id", section.ID),
			zap.Error(err))
	}
	return cause
}

// Drop marks an enrollment DROPPED and releases its seat. Terminal
// enrollments, and enrollments already dropped, are rejected.
func (s *EnrollmentService) Drop(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "enrollment cannot be dropped in its current state")
	}

	unlock := s.sectionLocks.Lock(enrollment.SectionID)
	defer unlock()

	section, err := s.sections.FindByID(ctx, enrollment.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusDropped); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}

	// The seat is released even when the section was cancelled after the
	// fact; cancellation itself is never altered here.
	section.DecrementEnrollment()
	if err := s.sections.SaveCapacity(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	if s.notifier != nil {
		s.notifier.EnrollmentDropped(detail.ID, detail.StudentID, detail.SectionID)
	}
	return detail, nil
}
