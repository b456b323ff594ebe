package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type mockAssessmentRepo struct {
	entries map[string][]models.AssessmentEntry
	nextID  int
}

func (m *mockAssessmentRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AssessmentEntry, error) {
	return m.entries[enrollmentID], nil
}

func (m *mockAssessmentRepo) Create(ctx context.Context, entry *models.AssessmentEntry) error {
	if m.entries == nil {
		m.entries = make(map[string][]models.AssessmentEntry)
	}
	m.nextID++
	entry.ID = fmt.Sprintf("asm-%d", m.nextID)
	m.entries[entry.EnrollmentID] = append(m.entries[entry.EnrollmentID], *entry)
	return nil
}

func (m *mockAssessmentRepo) UpdateMarks(ctx context.Context, id string, marksObtained float64, comments string) error {
	for enrollmentID, list := range m.entries {
		for i, e := range list {
			if e.ID == id {
				list[i].MarksObtained = marksObtained
				list[i].Comments = comments
				m.entries[enrollmentID] = list
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

func (m *mockAssessmentRepo) FindByID(ctx context.Context, id string) (*models.AssessmentEntry, error) {
	for _, list := range m.entries {
		for _, e := range list {
			if e.ID == id {
				found := e
				return &found, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

type mockGradedEnrollmentStore struct {
	enrollments map[string]models.Enrollment
	finalized   map[string]string
}

func (m *mockGradedEnrollmentStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradedEnrollmentStore) SetFinalGrade(ctx context.Context, id, grade string, gradePoints float64, status models.EnrollmentStatus) error {
	if m.finalized == nil {
		m.finalized = make(map[string]string)
	}
	m.finalized[id] = grade
	e := m.enrollments[id]
	e.Grade = &grade
	e.GradePoints = &gradePoints
	e.Status = status
	m.enrollments[id] = e
	return nil
}

type mockRecomputer struct {
	calls []string
	err   error
}

func (m *mockRecomputer) Recompute(ctx context.Context, studentID string) (*models.Student, error) {
	m.calls = append(m.calls, studentID)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: studentID}, nil
}

func newGradeFixture() (*mockAssessmentRepo, *mockGradedEnrollmentStore, *mockRecomputer, *GradeService) {
	assessments := &mockAssessmentRepo{}
	enrollments := &mockGradedEnrollmentStore{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", SectionID: "sec-1", Status: models.EnrollmentStatusEnrolled},
	}}
	gpa := &mockRecomputer{}
	svc := NewGradeService(assessments, enrollments, gpa, nil, validator.New(), zap.NewNop(), nil)
	return assessments, enrollments, gpa, svc
}

func TestGradeServiceRecordAssessment(t *testing.T) {
	assessments, _, _, svc := newGradeFixture()

	entry, err := svc.RecordAssessment(context.Background(), RecordAssessmentRequest{
		EnrollmentID:  "enr-1",
		Name:          "midterm",
		MarksObtained: 42,
		TotalMarks:    50,
		Weight:        40,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Len(t, assessments.entries["enr-1"], 1)
}

func TestGradeServiceRecordAssessmentMarksExceedTotal(t *testing.T) {
	_, _, _, svc := newGradeFixture()

	_, err := svc.RecordAssessment(context.Background(), RecordAssessmentRequest{
		EnrollmentID:  "enr-1",
		Name:          "midterm",
		MarksObtained: 60,
		TotalMarks:    50,
		Weight:        40,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAssessment.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordAssessmentFinalizedEnrollment(t *testing.T) {
	_, enrollments, _, svc := newGradeFixture()
	done := enrollments.enrollments["enr-1"]
	done.Status = models.EnrollmentStatusCompleted
	enrollments.enrollments["enr-1"] = done

	_, err := svc.RecordAssessment(context.Background(), RecordAssessmentRequest{
		EnrollmentID: "enr-1",
		Name:         "late quiz",
		TotalMarks:   10,
		Weight:       5,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOperation.Code, appErrors.FromError(err).Code)
}

func TestGradeServicePreview(t *testing.T) {
	assessments, _, _, svc := newGradeFixture()
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "midterm", MarksObtained: 80, TotalMarks: 100, Weight: 40},
			{ID: "a2", EnrollmentID: "enr-1", Name: "final", MarksObtained: 90, TotalMarks: 100, Weight: 60},
		},
	}

	preview, err := svc.Preview(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.InDelta(t, 86.0, preview.Percentage, 1e-9)
	assert.Equal(t, "B+", preview.Letter)
	assert.Equal(t, 3.50, preview.GradePoints)
	assert.Equal(t, 2, preview.EntryCount)
}

func TestGradeServiceFinalize(t *testing.T) {
	assessments, _, gpa, svc := newGradeFixture()
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "midterm", MarksObtained: 96, TotalMarks: 100, Weight: 50},
			{ID: "a2", EnrollmentID: "enr-1", Name: "final", MarksObtained: 94, TotalMarks: 100, Weight: 50},
		},
	}

	enrollment, err := svc.Finalize(context.Background(), "enr-1", "")
	require.NoError(t, err)
	require.NotNil(t, enrollment.Grade)
	assert.Equal(t, "A+", *enrollment.Grade)
	assert.Equal(t, 4.00, *enrollment.GradePoints)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.Equal(t, []string{"stu-1"}, gpa.calls)
}

func TestGradeServiceFinalizeFailingGrade(t *testing.T) {
	assessments, _, _, svc := newGradeFixture()
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "final", MarksObtained: 30, TotalMarks: 100, Weight: 100},
		},
	}

	enrollment, err := svc.Finalize(context.Background(), "enr-1", "")
	require.NoError(t, err)
	assert.Equal(t, "F", *enrollment.Grade)
	assert.Equal(t, 0.00, *enrollment.GradePoints)
	assert.Equal(t, models.EnrollmentStatusFailed, enrollment.Status)
}

func TestGradeServiceFinalizeExplicitLetter(t *testing.T) {
	_, _, gpa, svc := newGradeFixture()

	enrollment, err := svc.Finalize(context.Background(), "enr-1", "B")
	require.NoError(t, err)
	assert.Equal(t, "B", *enrollment.Grade)
	assert.Equal(t, 3.00, *enrollment.GradePoints)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.Equal(t, []string{"stu-1"}, gpa.calls)
}

func TestGradeServiceFinalizeUnknownLetter(t *testing.T) {
	_, enrollments, _, svc := newGradeFixture()

	_, err := svc.Finalize(context.Background(), "enr-1", "E")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAssessment.Code, appErrors.FromError(err).Code)
	assert.Empty(t, enrollments.finalized)
}

func TestGradeServiceFinalizeIsOneShot(t *testing.T) {
	assessments, _, _, svc := newGradeFixture()
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "final", MarksObtained: 85, TotalMarks: 100, Weight: 100},
		},
	}

	_, err := svc.Finalize(context.Background(), "enr-1", "")
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), "enr-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOperation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceFinalizeNoEntries(t *testing.T) {
	_, _, _, svc := newGradeFixture()

	_, err := svc.Finalize(context.Background(), "enr-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAssessment.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceFinalizeAbsorbsRecomputeFailure(t *testing.T) {
	assessments, enrollments, gpa, svc := newGradeFixture()
	gpa.err = fmt.Errorf("recompute down")
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "final", MarksObtained: 75, TotalMarks: 100, Weight: 100},
		},
	}

	enrollment, err := svc.Finalize(context.Background(), "enr-1", "")
	require.NoError(t, err)
	assert.Equal(t, "C+", *enrollment.Grade)
	assert.Equal(t, "C+", enrollments.finalized["enr-1"])
	assert.Len(t, gpa.calls, 1)
}

func TestGradeServiceUpdateAssessment(t *testing.T) {
	assessments, _, _, svc := newGradeFixture()
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "quiz", MarksObtained: 4, TotalMarks: 10, Weight: 10},
		},
	}

	entry, err := svc.UpdateAssessment(context.Background(), "a1", UpdateAssessmentRequest{MarksObtained: 7, Comments: "regrade"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, entry.MarksObtained)
	assert.Equal(t, 7.0, assessments.entries["enr-1"][0].MarksObtained)
}

func TestGradeServiceUpdateAssessmentExceedsTotal(t *testing.T) {
	assessments, _, _, svc := newGradeFixture()
	assessments.entries = map[string][]models.AssessmentEntry{
		"enr-1": {
			{ID: "a1", EnrollmentID: "enr-1", Name: "quiz", MarksObtained: 4, TotalMarks: 10, Weight: 10},
		},
	}

	_, err := svc.UpdateAssessment(context.Background(), "a1", UpdateAssessmentRequest{MarksObtained: 12})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidAssessment.Code, appErrors.FromError(err).Code)
}
