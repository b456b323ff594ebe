package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// AssessmentRepository handles persistence of assessment entries.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListByEnrollment returns all assessment entries for an enrollment in
// grading order.
func (r *AssessmentRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AssessmentEntry, error) {
	const query = `SELECT id, enrollment_id, name, marks_obtained, total_marks, weight, graded_by, comments, created_at, updated_at
        FROM assessments WHERE enrollment_id = $1 ORDER BY created_at`
	var entries []models.AssessmentEntry
	if err := r.db.SelectContext(ctx, &entries, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return entries, nil
}

// Create persists a new assessment entry.
func (r *AssessmentRepository) Create(ctx context.Context, entry *models.AssessmentEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `INSERT INTO assessments (id, enrollment_id, name, marks_obtained, total_marks, weight, graded_by, comments)
        VALUES (:id, :enrollment_id, :name, :marks_obtained, :total_marks, :weight, :graded_by, :comments)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// UpdateMarks adjusts a recorded entry's marks and comments.
func (r *AssessmentRepository) UpdateMarks(ctx context.Context, id string, marksObtained float64, comments string) error {
	const query = `UPDATE assessments SET marks_obtained = $2, comments = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, marksObtained, comments); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// FindByID returns a single assessment entry.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.AssessmentEntry, error) {
	const query = `SELECT id, enrollment_id, name, marks_obtained, total_marks, weight, graded_by, comments, created_at, updated_at
        FROM assessments WHERE id = $1`
	var entry models.AssessmentEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}
