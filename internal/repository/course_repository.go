package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// CourseRepository handles persistence of the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses c`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("c.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.code ILIKE $%d OR c.name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"code":       "c.code",
		"name":       "c.name",
		"department": "c.department",
		"credits":    "c.credits",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT c.id, c.code, c.name, c.description, c.credits, c.department, c.active, c.created_at, c.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, description, credits, department, active, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Prerequisites returns a course's prerequisite references in stored order.
func (r *CourseRepository) Prerequisites(ctx context.Context, courseID string) ([]models.CourseRef, error) {
	const query = `SELECT c.id, c.code, c.name
        FROM course_prerequisites cp
        JOIN courses c ON c.id = cp.prerequisite_id
        WHERE cp.course_id = $1
        ORDER BY cp.position`
	var refs []models.CourseRef
	if err := r.db.SelectContext(ctx, &refs, query, courseID); err != nil {
		return nil, fmt.Errorf("load prerequisites: %w", err)
	}
	return refs, nil
}

// Create persists a new course and its prerequisite references.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course, prerequisiteIDs []string) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO courses (id, code, name, description, credits, department, active)
        VALUES (:id, :code, :name, :description, :credits, :department, :active)`
	if _, err := tx.NamedExecContext(ctx, insert, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	if err := replacePrerequisites(ctx, tx, course.ID, prerequisiteIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update persists catalog changes and replaces the prerequisite set.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course, prerequisiteIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE courses SET name = :name, description = :description, credits = :credits,
        department = :department, active = :active, updated_at = NOW() WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_prerequisites WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear prerequisites: %w", err)
	}
	if err := replacePrerequisites(ctx, tx, course.ID, prerequisiteIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func replacePrerequisites(ctx context.Context, tx *sqlx.Tx, courseID string, prerequisiteIDs []string) error {
	const insert = `INSERT INTO course_prerequisites (course_id, prerequisite_id, position) VALUES ($1, $2, $3)`
	for i, prereqID := range prerequisiteIDs {
		if _, err := tx.ExecContext(ctx, insert, courseID, prereqID, i); err != nil {
			return fmt.Errorf("insert prerequisite %s: %w", prereqID, err)
		}
	}
	return nil
}
