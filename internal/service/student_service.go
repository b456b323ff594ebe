package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

// suspensionThreshold is the GPA floor for good standing.
const suspensionThreshold = 2.00

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateAcademic(ctx context.Context, id string, gpa float64, status models.AcademicStatus) error
}

type creditLister interface {
	ListCompletedCredits(ctx context.Context, studentID string) ([]models.CompletedCredit, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string)
}

type academicMetrics interface {
	RecordCacheOperation(hit bool)
	ObserveDBQuery(label string, duration time.Duration)
}

// StudentService owns the derived academic state of students: their GPA and
// academic standing. Recomputation for one student is serialized through a
// per-student lock so overlapping finalizations cannot interleave the
// read-compute-write cycle.
type StudentService struct {
	repo         studentRepository
	credits      creditLister
	cache        summaryCache
	cacheTTL     time.Duration
	logger       *zap.Logger
	metrics      academicMetrics
	studentLocks *keyedMutex
}

// NewStudentService constructs StudentService. cache and metrics may be nil,
// in which case summaries are computed on every call and nothing is recorded.
func NewStudentService(repo studentRepository, credits creditLister, cache summaryCache, cacheTTL time.Duration, logger *zap.Logger, metrics academicMetrics) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StudentService{
		repo:         repo,
		credits:      credits,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		metrics:      metrics,
		studentLocks: newKeyedMutex(),
	}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Recompute rebuilds the student's GPA from finalized enrollments and derives
// the academic standing from it. GRADUATED and WITHDRAWN are administrative
// states and are left untouched; only ACTIVE and SUSPENDED flip with the GPA.
func (s *StudentService) Recompute(ctx context.Context, studentID string) (*models.Student, error) {
	unlock := s.studentLocks.Lock(studentID)
	defer unlock()

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	credits, err := s.listCredits(ctx, studentID)
	if err != nil {
		return nil, err
	}

	gpa := computeGPA(credits)
	status := student.AcademicStatus
	switch status {
	case models.AcademicStatusGraduated, models.AcademicStatusWithdrawn:
		// keep
	default:
		if gpa < suspensionThreshold && len(credits) > 0 {
			status = models.AcademicStatusSuspended
		} else {
			status = models.AcademicStatusActive
		}
	}

	if err := s.repo.UpdateAcademic(ctx, studentID, gpa, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist academic standing")
	}
	student.GPA = gpa
	student.AcademicStatus = status

	if s.cache != nil {
		s.cache.Delete(ctx, summaryCacheKey(studentID))
	}

	s.logger.Info("academic standing recomputed",
		zap.String("student_id", studentID),
		zap.Float64("gpa", gpa),
		zap.String("status", string(status)))
	return student, nil
}

// AcademicSummary returns the cached read model for a student's standing,
// computing and caching it on a miss.
func (s *StudentService) AcademicSummary(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	key := summaryCacheKey(studentID)
	if s.cache != nil {
		var cached models.AcademicSummary
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil)
		}
		if err == nil {
			return &cached, nil
		}
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	credits, err := s.listCredits(ctx, studentID)
	if err != nil {
		return nil, err
	}

	totalCredits := 0
	for _, c := range credits {
		totalCredits += c.Credits
	}
	summary := &models.AcademicSummary{
		StudentID:        studentID,
		GPA:              student.GPA,
		AcademicStatus:   student.AcademicStatus,
		CompletedCredits: totalCredits,
		CompletedCourses: len(credits),
		ComputedAt:       time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache academic summary",
				zap.String("student_id", studentID),
				zap.Error(err))
		}
	}
	return summary, nil
}

// listCredits loads the finalized credit rows and reports the query duration.
func (s *StudentService) listCredits(ctx context.Context, studentID string) ([]models.CompletedCredit, error) {
	start := time.Now()
	credits, err := s.credits.ListCompletedCredits(ctx, studentID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("list_completed_credits", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load finalized credits")
	}
	return credits, nil
}

// computeGPA averages grade points weighted by credit hours, rounded to two
// decimals. No finalized credits yields 0.00.
func computeGPA(credits []models.CompletedCredit) float64 {
	var points, hours float64
	for _, c := range credits {
		points += c.GradePoints * float64(c.Credits)
		hours += float64(c.Credits)
	}
	if hours == 0 {
		return 0
	}
	return math.Round(points/hours*100) / 100
}

func summaryCacheKey(studentID string) string {
	return fmt.Sprintf("academic_summary:%s", studentID)
}
