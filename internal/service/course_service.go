package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Prerequisites(ctx context.Context, courseID string) ([]models.CourseRef, error)
	Create(ctx context.Context, course *models.Course, prerequisiteIDs []string) error
	Update(ctx context.Context, course *models.Course, prerequisiteIDs []string) error
}

// CreateCourseRequest carries catalog fields for a new course.
type CreateCourseRequest struct {
	Code            string   `json:"code" validate:"required,min=2,max=20"`
	Name            string   `json:"name" validate:"required,min=2,max=200"`
	Description     string   `json:"description" validate:"max=2000"`
	Credits         int      `json:"credits" validate:"required,min=1,max=12"`
	Department      string   `json:"department" validate:"required,min=2,max=100"`
	PrerequisiteIDs []string `json:"prerequisite_ids" validate:"dive,uuid"`
}

// UpdateCourseRequest updates catalog fields of an existing course.
type UpdateCourseRequest struct {
	Name            string   `json:"name" validate:"required,min=2,max=200"`
	Description     string   `json:"description" validate:"max=2000"`
	Credits         int      `json:"credits" validate:"required,min=1,max=12"`
	Department      string   `json:"department" validate:"required,min=2,max=100"`
	Active          *bool    `json:"active"`
	PrerequisiteIDs []string `json:"prerequisite_ids" validate:"dive,uuid"`
}

// CourseService manages the course catalog and its prerequisite links.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// Get returns a course with its prerequisites loaded.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	prerequisites, err := s.repo.Prerequisites(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	course.Prerequisites = prerequisites
	return course, nil
}

// Create adds a course to the catalog.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.checkPrerequisites(ctx, "", req.PrerequisiteIDs); err != nil {
		return nil, err
	}

	course := &models.Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Credits:     req.Credits,
		Department:  req.Department,
		Active:      true,
	}
	if err := s.repo.Create(ctx, course, req.PrerequisiteIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return s.Get(ctx, course.ID)
}

// Update modifies catalog fields and replaces the prerequisite set.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.checkPrerequisites(ctx, id, req.PrerequisiteIDs); err != nil {
		return nil, err
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Name = req.Name
	course.Description = req.Description
	course.Credits = req.Credits
	course.Department = req.Department
	if req.Active != nil {
		course.Active = *req.Active
	}
	if err := s.repo.Update(ctx, course, req.PrerequisiteIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return s.Get(ctx, id)
}

// checkPrerequisites rejects self-reference and verifies every referenced
// course exists.
func (s *CourseService) checkPrerequisites(ctx context.Context, courseID string, prerequisiteIDs []string) error {
	for _, prereqID := range prerequisiteIDs {
		if courseID != "" && prereqID == courseID {
			return appErrors.Clone(appErrors.ErrValidation, "a course cannot be its own prerequisite")
		}
		if _, err := s.repo.FindByID(ctx, prereqID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrValidation, "prerequisite course not found: "+prereqID)
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify prerequisite")
		}
	}
	return nil
}
