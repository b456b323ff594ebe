package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
	updated  map[string]models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var list []models.Student
	for _, s := range m.students {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) UpdateAcademic(ctx context.Context, id string, gpa float64, status models.AcademicStatus) error {
	if m.updated == nil {
		m.updated = make(map[string]models.Student)
	}
	s := m.students[id]
	s.GPA = gpa
	s.AcademicStatus = status
	m.students[id] = s
	m.updated[id] = s
	return nil
}

type mockCreditLister struct {
	credits map[string][]models.CompletedCredit
}

func (m *mockCreditLister) ListCompletedCredits(ctx context.Context, studentID string) ([]models.CompletedCredit, error) {
	return m.credits[studentID], nil
}

type mockSummaryCache struct {
	summary map[string]models.AcademicSummary
	deleted []string
	sets    int
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if s, ok := m.summary[key]; ok {
		*(dest.(*models.AcademicSummary)) = s
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.summary == nil {
		m.summary = make(map[string]models.AcademicSummary)
	}
	if s, ok := value.(*models.AcademicSummary); ok {
		m.summary[key] = *s
	}
	m.sets++
	return nil
}

func (m *mockSummaryCache) Delete(ctx context.Context, key string) {
	delete(m.summary, key)
	m.deleted = append(m.deleted, key)
}

type mockAcademicMetrics struct {
	cacheHits   int
	cacheMisses int
	queries     []string
}

func (m *mockAcademicMetrics) RecordCacheOperation(hit bool) {
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *mockAcademicMetrics) ObserveDBQuery(label string, duration time.Duration) {
	m.queries = append(m.queries, label)
}

func newStudentFixture() (*mockStudentRepo, *mockCreditLister, *mockSummaryCache, *StudentService) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", Active: true, AcademicStatus: models.AcademicStatusActive},
	}}
	credits := &mockCreditLister{credits: make(map[string][]models.CompletedCredit)}
	cache := &mockSummaryCache{}
	svc := NewStudentService(repo, credits, cache, time.Minute, zap.NewNop(), nil)
	return repo, credits, cache, svc
}

func TestStudentServiceRecomputeWeightedGPA(t *testing.T) {
	_, credits, _, svc := newStudentFixture()
	credits.credits["stu-1"] = []models.CompletedCredit{
		{EnrollmentID: "e1", CourseID: "c1", GradePoints: 4.00, Credits: 3},
		{EnrollmentID: "e2", CourseID: "c2", GradePoints: 3.00, Credits: 4},
		{EnrollmentID: "e3", CourseID: "c3", GradePoints: 2.00, Credits: 3},
	}

	student, err := svc.Recompute(context.Background(), "stu-1")
	require.NoError(t, err)
	// (4*3 + 3*4 + 2*3) / 10 = 3.0
	assert.Equal(t, 3.0, student.GPA)
	assert.Equal(t, models.AcademicStatusActive, student.AcademicStatus)
}

func TestStudentServiceRecomputeRounding(t *testing.T) {
	_, credits, _, svc := newStudentFixture()
	credits.credits["stu-1"] = []models.CompletedCredit{
		{EnrollmentID: "e1", CourseID: "c1", GradePoints: 3.00, Credits: 3},
		{EnrollmentID: "e2", CourseID: "c2", GradePoints: 0.00, Credits: 4},
	}

	student, err := svc.Recompute(context.Background(), "stu-1")
	require.NoError(t, err)
	// 9 / 7 = 1.2857... rounds to 1.29, below the 2.00 floor.
	assert.Equal(t, 1.29, student.GPA)
	assert.Equal(t, models.AcademicStatusSuspended, student.AcademicStatus)
}

func TestStudentServiceRecomputeFailedCountsInGPA(t *testing.T) {
	_, credits, _, svc := newStudentFixture()
	// A failed course contributes zero points but its credits still weigh in.
	credits.credits["stu-1"] = []models.CompletedCredit{
		{EnrollmentID: "e1", CourseID: "c1", GradePoints: 4.00, Credits: 3},
		{EnrollmentID: "e2", CourseID: "c2", GradePoints: 0.00, Credits: 3},
	}

	student, err := svc.Recompute(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, student.GPA)
	assert.Equal(t, models.AcademicStatusActive, student.AcademicStatus)
}

func TestStudentServiceRecomputeNoCredits(t *testing.T) {
	_, _, _, svc := newStudentFixture()

	student, err := svc.Recompute(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, student.GPA)
	// A student with no finalized credits is not suspended.
	assert.Equal(t, models.AcademicStatusActive, student.AcademicStatus)
}

func TestStudentServiceRecomputeKeepsAdministrativeStatus(t *testing.T) {
	repo, credits, _, svc := newStudentFixture()
	for _, status := range []models.AcademicStatus{models.AcademicStatusGraduated, models.AcademicStatusWithdrawn} {
		s := repo.students["stu-1"]
		s.AcademicStatus = status
		repo.students["stu-1"] = s
		credits.credits["stu-1"] = []models.CompletedCredit{
			{EnrollmentID: "e1", CourseID: "c1", GradePoints: 1.00, Credits: 3},
		}

		student, err := svc.Recompute(context.Background(), "stu-1")
		require.NoError(t, err)
		assert.Equal(t, 1.0, student.GPA)
		assert.Equal(t, status, student.AcademicStatus)
	}
}

func TestStudentServiceRecomputeInvalidatesSummaryCache(t *testing.T) {
	_, _, cache, svc := newStudentFixture()

	_, err := svc.Recompute(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Contains(t, cache.deleted, "academic_summary:stu-1")
}

func TestStudentServiceAcademicSummary(t *testing.T) {
	_, credits, cache, svc := newStudentFixture()
	credits.credits["stu-1"] = []models.CompletedCredit{
		{EnrollmentID: "e1", CourseID: "c1", GradePoints: 4.00, Credits: 3},
		{EnrollmentID: "e2", CourseID: "c2", GradePoints: 3.00, Credits: 4},
	}

	summary, err := svc.AcademicSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 7, summary.CompletedCredits)
	assert.Equal(t, 2, summary.CompletedCourses)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache.
	again, err := svc.AcademicSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, summary.CompletedCredits, again.CompletedCredits)
	assert.Equal(t, 1, cache.sets)
}

func TestStudentServiceAcademicSummaryRecordsMetrics(t *testing.T) {
	repo, credits, cache, _ := newStudentFixture()
	metrics := &mockAcademicMetrics{}
	svc := NewStudentService(repo, credits, cache, time.Minute, zap.NewNop(), metrics)

	_, err := svc.AcademicSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.cacheMisses)
	assert.Equal(t, 0, metrics.cacheHits)
	assert.Equal(t, []string{"list_completed_credits"}, metrics.queries)

	_, err = svc.AcademicSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.cacheHits)
	assert.Equal(t, 1, metrics.cacheMisses)
	// Served from cache, no second credits query.
	assert.Len(t, metrics.queries, 1)
}

func TestStudentServiceRecomputeObservesQueryTiming(t *testing.T) {
	repo, credits, cache, _ := newStudentFixture()
	metrics := &mockAcademicMetrics{}
	svc := NewStudentService(repo, credits, cache, time.Minute, zap.NewNop(), metrics)

	_, err := svc.Recompute(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"list_completed_credits"}, metrics.queries)
	assert.Zero(t, metrics.cacheHits+metrics.cacheMisses)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	_, _, _, svc := newStudentFixture()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
