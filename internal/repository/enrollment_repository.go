package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students st ON st.id = e.student_id
JOIN sections s ON s.id = e.section_id
JOIN courses c ON c.id = s.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.AcademicYear != 0 {
		conditions = append(conditions, fmt.Sprintf("s.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":  "e.enrolled_at",
		"student_name": "st.full_name",
		"section_code": "s.code",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.section_id, e.enrolled_at, e.status, e.grade, e.grade_points,
        e.created_at, e.updated_at,
        st.full_name AS student_name, st.student_no AS student_no,
        s.code AS section_code, s.semester, s.academic_year,
        c.code AS course_code, c.name AS course_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, enrolled_at, status, grade, grade_points, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with contextual info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.enrolled_at, e.status, e.grade, e.grade_points,
        e.created_at, e.updated_at,
        st.full_name AS student_name, st.student_no AS student_no,
        s.code AS section_code, s.semester, s.academic_year,
        c.code AS course_code, c.name AS course_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN sections s ON s.id = e.section_id
        JOIN courses c ON c.id = s.course_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsEnrolled checks whether the student already holds an ENROLLED
// enrollment in the section.
func (r *EnrollmentRepository) ExistsEnrolled(ctx context.Context, studentID, sectionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, sectionID, models.EnrollmentStatusEnrolled); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	const query = `INSERT INTO enrollments (id, student_id, section_id, enrolled_at, status, grade, grade_points)
        VALUES (:id, :student_id, :section_id, :enrolled_at, :status, :grade, :grade_points)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus updates the status of an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// SetFinalGrade writes the final grade, its point value and the terminal
// status in a single statement.
func (r *EnrollmentRepository) SetFinalGrade(ctx context.Context, id, grade string, gradePoints float64, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET grade = $2, grade_points = $3, status = $4, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, grade, gradePoints, status); err != nil {
		return fmt.Errorf("set final grade: %w", err)
	}
	return nil
}

// ListEnrolledWithSchedule returns the student's ENROLLED enrollments in the
// given semester and year together with their sections' meeting slots.
func (r *EnrollmentRepository) ListEnrolledWithSchedule(ctx context.Context, studentID string, semester models.Semester, academicYear int) ([]models.EnrollmentWithSchedule, error) {
	const query = `SELECT e.id, e.student_id, e.section_id, e.enrolled_at, e.status, e.grade, e.grade_points,
        e.created_at, e.updated_at, s.schedule AS section_schedule
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        WHERE e.student_id = $1 AND e.status = $2 AND s.semester = $3 AND s.academic_year = $4`
	var enrollments []models.EnrollmentWithSchedule
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusEnrolled, semester, academicYear); err != nil {
		return nil, fmt.Errorf("list enrolled with schedule: %w", err)
	}
	return enrollments, nil
}

// CompletedCourseIDs returns the ids of courses the student has COMPLETED,
// for prerequisite satisfaction.
func (r *EnrollmentRepository) CompletedCourseIDs(ctx context.Context, studentID string) (map[string]bool, error) {
	const query = `SELECT DISTINCT s.course_id
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        WHERE e.student_id = $1 AND e.status = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, models.EnrollmentStatusCompleted); err != nil {
		return nil, fmt.Errorf("list completed courses: %w", err)
	}
	completed := make(map[string]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

// ListCompletedCredits returns every finalized enrollment's grade points and
// credit hours for GPA recomputation. FAILED enrollments are included: an F
// contributes zero points but its credits stay in the denominator.
func (r *EnrollmentRepository) ListCompletedCredits(ctx context.Context, studentID string) ([]models.CompletedCredit, error) {
	const query = `SELECT e.id AS enrollment_id, s.course_id, e.grade_points, c.credits
        FROM enrollments e
        JOIN sections s ON s.id = e.section_id
        JOIN courses c ON c.id = s.course_id
        WHERE e.student_id = $1 AND e.status IN ($2, $3) AND e.grade_points IS NOT NULL`
	var credits []models.CompletedCredit
	if err := r.db.SelectContext(ctx, &credits, query, studentID, models.EnrollmentStatusCompleted, models.EnrollmentStatusFailed); err != nil {
		return nil, fmt.Errorf("list completed credits: %w", err)
	}
	return credits, nil
}
