package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursedesk/coursedesk-api/internal/models"
	"github.com/coursedesk/coursedesk-api/internal/repository"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type courseRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	CreateWithSchedules(ctx context.Context, course *models.Course, schedules []models.Schedule) error
	UpdateByCode(ctx context.Context, code string, patch models.CoursePatch) (*models.Course, error)
	Delete(ctx context.Context, courseID string) error
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

type rosterReader interface {
	ListRosterByCourse(ctx context.Context, courseID string) ([]models.EnrolledStudent, error)
}

// ScheduleInput describes one schedule slot in course payloads.
type ScheduleInput struct {
	DayOfWeek int     `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Room      *string `json:"room"`
}

// CreateCourseRequest is the payload for course creation.
type CreateCourseRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description *string         `json:"description"`
	Code        string          `json:"code" validate:"required"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     time.Time       `json:"end_date" validate:"required"`
	Room        *string         `json:"room"`
	Schedule    []ScheduleInput `json:"schedule" validate:"omitempty,dive"`
}

// UpdateCourseRequest is the partial payload for course updates. A non-nil
// Schedule replaces the whole existing schedule set.
type UpdateCourseRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	Room        *string          `json:"room"`
	Schedule    *[]ScheduleInput `json:"schedule" validate:"omitempty,dive"`
}

// CourseService owns the course lifecycle and its ownership rules.
type CourseService struct {
	repo      courseRepository
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, roster: roster, validator: validate, logger: logger}
}

// Create registers a course for the acting teacher. The course row and any
// supplied schedule rows are written in one transaction. The code
// uniqueness pre-check is an optimization; the storage constraint is the
// real guard, so a constraint violation maps to the same conflict.
func (s *CourseService) Create(ctx context.Context, teacherID string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course with this code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	course := &models.Course{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   teacherID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Room:        req.Room,
	}

	if err := s.repo.CreateWithSchedules(ctx, course, scheduleInputsToModels(req.Schedule)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course with this code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code), zap.String("teacher_id", teacherID))
	return course, nil
}

// Update patches a course owned by the acting teacher. When the payload
// carries a schedule, the whole schedule set is replaced inside the same
// transaction as the field update.
//
// A course owned by a different teacher reports not-found, not forbidden.
// That asymmetry with Remove is inherited behavior kept on purpose.
func (s *CourseService) Update(ctx context.Context, teacherID, code string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if existing.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found for this teacher")
	}

	patch := models.CoursePatch{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Room:        req.Room,
	}
	if req.Schedule != nil {
		patch.Schedule = scheduleInputsToModels(*req.Schedule)
		if patch.Schedule == nil {
			patch.Schedule = []models.Schedule{}
		}
	}

	updated, err := s.repo.UpdateByCode(ctx, code, patch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return updated, nil
}

// Remove deletes a course owned by the acting teacher together with its
// schedules, enrollments and grades in one transaction.
func (s *CourseService) Remove(ctx context.Context, teacherID, code string) (*models.Course, error) {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if existing.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}

	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.logger.Info("course deleted", zap.String("course_id", existing.ID), zap.String("code", code))
	return existing, nil
}

// List returns a page of courses with pagination metadata.
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
	if size < 1 || size > 100 {
		size = 10
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetByCode returns a course by its unique code.
func (s *CourseService) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// GetEnrolledStudents returns the course roster ordered by enrollment
// time, earliest enrollees first. The roster carries student emails, so
// only the owning teacher may read it.
func (s *CourseService) GetEnrolledStudents(ctx context.Context, teacherID, courseID string) (*models.CourseRoster, error) {
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}

	students, err := s.roster.ListRosterByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	return &models.CourseRoster{
		CourseID:      courseID,
		CourseTitle:   course.Title,
		TotalEnrolled: len(students),
		Students:      students,
	}, nil
}

func scheduleInputsToModels(inputs []ScheduleInput) []models.Schedule {
	if len(inputs) == 0 {
		return nil
	}
	schedules := make([]models.Schedule, len(inputs))
	for i, in := range inputs {
		schedules[i] = models.Schedule{
			DayOfWeek: in.DayOfWeek,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Room:      in.Room,
		}
	}
	return schedules
}
