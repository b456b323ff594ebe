package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", SectionID: "sec-1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)

	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "enrolled_at", "status", "grade", "grade_points", "created_at", "updated_at"}).
		AddRow(enrollment.ID, "stu-1", "sec-1", time.Now(), "ENROLLED", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, section_id")).
		WithArgs(enrollment.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), enrollment.ID)
	require.NoError(t, err)
	require.Equal(t, "stu-1", found.StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsEnrolled(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu-1", "sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsEnrolled(context.Background(), "stu-1", "sec-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu-2", "sec-1", models.EnrollmentStatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsEnrolled(context.Background(), "stu-2", "sec-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySetFinalGrade(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET grade =")).
		WithArgs("enr-1", "B+", 3.50, models.EnrollmentStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetFinalGrade(context.Background(), "enr-1", "B+", 3.50, models.EnrollmentStatusCompleted))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCompletedCourseIDs(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"course_id"}).AddRow("crs-1").AddRow("crs-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT s.course_id")).
		WithArgs("stu-1", models.EnrollmentStatusCompleted).
		WillReturnRows(rows)

	completed, err := repo.CompletedCourseIDs(context.Background(), "stu-1")
	require.NoError(t, err)
	require.True(t, completed["crs-1"])
	require.True(t, completed["crs-2"])
	require.False(t, completed["crs-3"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListCompletedCredits(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"enrollment_id", "course_id", "grade_points", "credits"}).
		AddRow("enr-1", "crs-1", 4.00, 3).
		AddRow("enr-2", "crs-2", 0.00, 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id AS enrollment_id")).
		WithArgs("stu-1", models.EnrollmentStatusCompleted, models.EnrollmentStatusFailed).
		WillReturnRows(rows)

	credits, err := repo.ListCompletedCredits(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, credits, 2)
	require.Equal(t, 4.00, credits[0].GradePoints)
	require.Equal(t, 4, credits[1].Credits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListEnrolledWithSchedule(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	schedule := []byte(`[{"day_of_week":"MONDAY","start_time":"09:00","end_time":"10:30"}]`)
	rows := sqlmock.NewRows([]string{"id", "student_id", "section_id", "enrolled_at", "status", "grade", "grade_points", "created_at", "updated_at", "section_schedule"}).
		AddRow("enr-1", "stu-1", "sec-1", time.Now(), "ENROLLED", nil, nil, time.Now(), time.Now(), schedule)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.student_id, e.section_id")).
		WithArgs("stu-1", models.EnrollmentStatusEnrolled, models.SemesterFall, 2026).
		WillReturnRows(rows)

	enrollments, err := repo.ListEnrolledWithSchedule(context.Background(), "stu-1", models.SemesterFall, 2026)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Len(t, enrollments[0].SectionSchedule, 1)
	require.Equal(t, "MONDAY", enrollments[0].SectionSchedule[0].DayOfWeek)
	require.NoError(t, mock.ExpectationsWereMet())
}
