package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
	Create(ctx context.Context, section *models.Section) error
	Cancel(ctx context.Context, id string) error
}

type sectionCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// MeetingSlotRequest is one weekly meeting window in a section payload.
type MeetingSlotRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
}

// CreateSectionRequest carries fields for a new section offering.
type CreateSectionRequest struct {
	CourseID     string               `json:"course_id" validate:"required,uuid"`
	Code         string               `json:"code" validate:"required,min=1,max=20"`
	Semester     models.Semester      `json:"semester" validate:"required,oneof=FALL SPRING SUMMER"`
	AcademicYear int                  `json:"academic_year" validate:"required,min=2000,max=2100"`
	InstructorID *string              `json:"instructor_id,omitempty" validate:"omitempty,uuid"`
	MaxCapacity  int                  `json:"max_capacity" validate:"required,min=1,max=1000"`
	Schedule     []MeetingSlotRequest `json:"schedule" validate:"required,min=1,dive"`
}

// SectionService manages section offerings. Capacity mutation is not done
// here; that belongs to the enrollment flow.
type SectionService struct {
	repo      sectionRepository
	courses   sectionCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionRepository, courses sectionCourseReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns sections with pagination metadata.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
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
	return sections, pagination, nil
}

// Get returns a section with course info.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return detail, nil
}

// Create adds a new section for an existing, active course. Overlapping
// meeting slots within the section itself are rejected up front.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPrecondition, "course is inactive")
	}

	schedule := make(models.MeetingSlots, 0, len(req.Schedule))
	for _, slot := range req.Schedule {
		if _, _, err := parseSlotWindow(slot.StartTime, slot.EndTime); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		schedule = append(schedule, models.MeetingSlot{
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	for i := range schedule {
		for j := i + 1; j < len(schedule); j++ {
			if slotOverlap(schedule[i], schedule[j]) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "section meeting slots overlap each other")
			}
		}
	}

	section := &models.Section{
		CourseID:     req.CourseID,
		Code:         req.Code,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		InstructorID: req.InstructorID,
		MaxCapacity:  req.MaxCapacity,
		Schedule:     schedule,
		Status:       models.SectionStatusOpen,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return s.Get(ctx, section.ID)
}

// Cancel marks a section CANCELLED. The status is terminal; existing
// enrollments are unaffected and may still be dropped individually.
func (s *SectionService) Cancel(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.Status == models.SectionStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "section is already cancelled")
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel section")
	}
	s.logger.Info("section cancelled", zap.String("section_id", id))
	return s.Get(ctx, id)
}
