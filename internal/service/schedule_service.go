package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursedesk/coursedesk-api/internal/models"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type scheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, id string, patch models.SchedulePatch) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateScheduleRequest is the payload for adding one schedule slot.
type CreateScheduleRequest struct {
	DayOfWeek int     `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Room      *string `json:"room"`
}

// UpdateScheduleRequest carries optional schedule slot updates.
type UpdateScheduleRequest struct {
	DayOfWeek *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Room      *string `json:"room"`
}

// ScheduleService manages weekly schedule slots for courses.
type ScheduleService struct {
	repo      scheduleRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// ListByCourseCode returns a course header with its slots in weekly
// calendar order.
func (s *ScheduleService) ListByCourseCode(ctx context.Context, code string) (*models.CourseSchedules, error) {
	course, err := s.courses.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	schedules, err := s.repo.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}

	return &models.CourseSchedules{
		Course: models.CourseHeader{
			ID:          course.ID,
			Title:       course.Title,
			Code:        course.Code,
			Description: course.Description,
			Room:        course.Room,
			StartDate:   course.StartDate,
			EndDate:     course.EndDate,
		},
		Schedules: schedules,
	}, nil
}

// GetByID returns a single slot.
func (s *ScheduleService) GetByID(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// ListByCourse returns a course's slots in weekly calendar order.
func (s *ScheduleService) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	schedules, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	return schedules, nil
}

// Add creates a slot on a course owned by the acting teacher. The course
// is addressed by code, matching the course route shape.
func (s *ScheduleService) Add(ctx context.Context, teacherID, courseCode string, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	course, err := s.courses.FindByCode(ctx, courseCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}

	schedule := &models.Schedule{
		CourseID:  course.ID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.logger.Info("schedule created", zap.String("schedule_id", schedule.ID), zap.String("course_id", course.ID))
	return schedule, nil
}

// Update patches a slot on a course owned by the acting teacher.
func (s *ScheduleService) Update(ctx context.Context, teacherID, scheduleID string, req UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	if _, err := s.loadOwned(ctx, teacherID, scheduleID); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, scheduleID, models.SchedulePatch{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return updated, nil
}

// Remove deletes a slot on a course owned by the acting teacher.
func (s *ScheduleService) Remove(ctx context.Context, teacherID, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.loadOwned(ctx, teacherID, scheduleID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, scheduleID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}

	s.logger.Info("schedule deleted", zap.String("schedule_id", scheduleID))
	return schedule, nil
}

// loadOwned resolves the slot and verifies its course belongs to the
// acting teacher.
func (s *ScheduleService) loadOwned(ctx context.Context, teacherID, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	course, err := s.courses.FindByID(ctx, schedule.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}
	return schedule, nil
}
