package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
)

func TestSectionRepositorySaveCapacity(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewSectionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET current_enrollment =")).
		WithArgs("sec-1", 5, models.SectionStatusClosed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	section := &models.Section{ID: "sec-1", CurrentEnrollment: 5, Status: models.SectionStatusClosed}
	require.NoError(t, repo.SaveCapacity(context.Background(), section))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewSectionRepository(db)
	schedule := []byte(`[{"day_of_week":"FRIDAY","start_time":"13:00","end_time":"14:30"}]`)
	rows := sqlmock.NewRows([]string{"id", "course_id", "code", "semester", "academic_year", "instructor_id", "max_capacity", "current_enrollment", "schedule", "status", "created_at", "updated_at"}).
		AddRow("sec-1", "crs-1", "CS200-A", "FALL", 2026, nil, 30, 12, schedule, "OPEN", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, code")).
		WithArgs("sec-1").
		WillReturnRows(rows)

	section, err := repo.FindByID(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Equal(t, 30, section.MaxCapacity)
	require.Equal(t, models.SectionStatusOpen, section.Status)
	require.Len(t, section.Schedule, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewSectionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sections SET status =")).
		WithArgs("sec-1", models.SectionStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Cancel(context.Background(), "sec-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
