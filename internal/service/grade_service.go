package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type assessmentRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AssessmentEntry, error)
	Create(ctx context.Context, entry *models.AssessmentEntry) error
	UpdateMarks(ctx context.Context, id string, marksObtained float64, comments string) error
	FindByID(ctx context.Context, id string) (*models.AssessmentEntry, error)
}

type gradedEnrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	SetFinalGrade(ctx context.Context, id, grade string, gradePoints float64, status models.EnrollmentStatus) error
}

type gpaRecomputer interface {
	Recompute(ctx context.Context, studentID string) (*models.Student, error)
}

type gradeNotifier interface {
	GradeFinalized(enrollmentID, studentID, letter string)
}

type gradeMetrics interface {
	RecordGradeFinalized(letter string)
}

// RecordAssessmentRequest carries one graded piece of work.
type RecordAssessmentRequest struct {
	EnrollmentID  string  `json:"enrollment_id" validate:"required"`
	Name          string  `json:"name" validate:"required,min=1,max=120"`
	MarksObtained float64 `json:"marks_obtained" validate:"min=0"`
	TotalMarks    float64 `json:"total_marks" validate:"required,gt=0"`
	Weight        float64 `json:"weight" validate:"min=0"`
	GradedBy      *string `json:"graded_by,omitempty"`
	Comments      string  `json:"comments" validate:"max=500"`
}

// UpdateAssessmentRequest re-marks an existing entry.
type UpdateAssessmentRequest struct {
	MarksObtained float64 `json:"marks_obtained" validate:"min=0"`
	Comments      string  `json:"comments" validate:"max=500"`
}

// GradeService records assessment entries and finalizes grades. Finalization
// is one-shot per enrollment: once the status leaves ENROLLED the grade is
// immutable and further writes are rejected.
type GradeService struct {
	assessments assessmentRepository
	enrollments gradedEnrollmentStore
	gpa         gpaRecomputer
	notifier    gradeNotifier
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     gradeMetrics
}

// NewGradeService constructs GradeService.
func NewGradeService(assessments assessmentRepository, enrollments gradedEnrollmentStore, gpa gpaRecomputer, notifier gradeNotifier, validate *validator.Validate, logger *zap.Logger, metrics gradeMetrics) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		assessments: assessments,
		enrollments: enrollments,
		gpa:         gpa,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// RecordAssessment stores a new assessment entry for an active enrollment.
func (s *GradeService) RecordAssessment(ctx context.Context, req RecordAssessmentRequest) (*models.AssessmentEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if req.MarksObtained > req.TotalMarks {
		return nil, appErrors.Clone(appErrors.ErrInvalidAssessment, fmt.Sprintf("marks obtained %.2f exceed total marks %.2f", req.MarksObtained, req.TotalMarks))
	}

	enrollment, err := s.loadEnrollment(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "enrollment is not open for grading")
	}

	entry := &models.AssessmentEntry{
		EnrollmentID:  req.EnrollmentID,
		Name:          req.Name,
		MarksObtained: req.MarksObtained,
		TotalMarks:    req.TotalMarks,
		Weight:        req.Weight,
		GradedBy:      req.GradedBy,
		Comments:      req.Comments,
	}
	if err := s.assessments.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record assessment")
	}
	return entry, nil
}

// UpdateAssessment re-marks an entry while its enrollment is still open.
func (s *GradeService) UpdateAssessment(ctx context.Context, id string, req UpdateAssessmentRequest) (*models.AssessmentEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}

	entry, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment entry")
	}
	if req.MarksObtained > entry.TotalMarks {
		return nil, appErrors.Clone(appErrors.ErrInvalidAssessment, fmt.Sprintf("marks obtained %.2f exceed total marks %.2f", req.MarksObtained, entry.TotalMarks))
	}

	enrollment, err := s.loadEnrollment(ctx, entry.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "enrollment grade is already finalized")
	}

	if err := s.assessments.UpdateMarks(ctx, id, req.MarksObtained, req.Comments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment entry")
	}
	entry.MarksObtained = req.MarksObtained
	entry.Comments = req.Comments
	return entry, nil
}

// ListAssessments returns all entries for an enrollment.
func (s *GradeService) ListAssessments(ctx context.Context, enrollmentID string) ([]models.AssessmentEntry, error) {
	if _, err := s.loadEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	entries, err := s.assessments.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment entries")
	}
	return entries, nil
}

// Preview computes the current weighted standing without persisting anything.
func (s *GradeService) Preview(ctx context.Context, enrollmentID string) (*models.GradePreview, error) {
	if _, err := s.loadEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	entries, err := s.assessments.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment entries")
	}
	percentage, err := AggregateWeighted(entries)
	if err != nil {
		return nil, err
	}
	letter, points := LetterGradeFor(percentage)
	return &models.GradePreview{
		EnrollmentID: enrollmentID,
		Percentage:   percentage,
		Letter:       letter,
		GradePoints:  points,
		EntryCount:   len(entries),
	}, nil
}

// Finalize stamps a final letter grade on the enrollment and moves the status
// to COMPLETED, or FAILED for an F. When letterGrade is empty the grade is
// derived from the weighted assessment entries; otherwise the given letter is
// used as-is after a reverse lookup of its grade-point value. The student's
// GPA is recomputed afterwards; a recomputation failure is logged and absorbed
// since the grade itself is already committed.
func (s *GradeService) Finalize(ctx context.Context, enrollmentID, letterGrade string) (*models.Enrollment, error) {
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "enrollment grade is already finalized")
	}

	var (
		letter     string
		points     float64
		percentage float64
	)
	if letterGrade != "" {
		pts, ok := GradePointsFor(letterGrade)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidAssessment, "unknown letter grade: "+letterGrade)
		}
		letter, points = letterGrade, pts
	} else {
		entries, err := s.assessments.ListByEnrollment(ctx, enrollmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment entries")
		}
		if len(entries) == 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidAssessment, "no assessment entries to finalize")
		}
		if percentage, err = AggregateWeighted(entries); err != nil {
			return nil, err
		}
		letter, points = LetterGradeFor(percentage)
	}

	status := models.EnrollmentStatusCompleted
	if letter == "F" {
		status = models.EnrollmentStatusFailed
	}
	if err := s.enrollments.SetFinalGrade(ctx, enrollmentID, letter, points, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize grade")
	}

	enrollment.Grade = &letter
	enrollment.GradePoints = &points
	enrollment.Status = status

	if s.gpa != nil {
		if _, err := s.gpa.Recompute(ctx, enrollment.StudentID); err != nil {
			s.logger.Error("gpa recomputation failed after grade finalization",
				zap.String("student_id", enrollment.StudentID),
				zap.String("enrollment_id", enrollmentID),
				zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.GradeFinalized(enrollmentID, enrollment.StudentID, letter)
	}
	if s.metrics != nil {
		s.metrics.RecordGradeFinalized(letter)
	}

	s.logger.Info("grade finalized",
		zap.String("enrollment_id", enrollmentID),
		zap.String("grade", letter),
		zap.Float64("percentage", percentage))
	return enrollment, nil
}

func (s *GradeService) loadEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}
