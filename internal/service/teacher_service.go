package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursedesk/coursedesk-api/internal/models"
	"github.com/coursedesk/coursedesk-api/internal/repository"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type teacherRepository interface {
	FindProfileByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	DeleteByUserID(ctx context.Context, userID string) (bool, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type courseLister interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

type gradeLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
}

// UpdateUserRoleRequest toggles the teacher role of a target user.
type UpdateUserRoleRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	IsTeacher *bool  `json:"is_teacher" validate:"required"`
}

// TeacherService covers teacher-facing profile, course listing, role
// administration and grade exports.
type TeacherService struct {
	repo        teacherRepository
	users       userReader
	courses     courseLister
	coursesByID courseReader
	grades      gradeLister
	exporter    *ExportService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, users userReader, courses courseLister, coursesByID courseReader, grades gradeLister, exporter *ExportService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		repo:        repo,
		users:       users,
		courses:     courses,
		coursesByID: coursesByID,
		grades:      grades,
		exporter:    exporter,
		validator:   validate,
		logger:      logger,
	}
}

// GetMyProfile returns the acting teacher's profile with user fields.
func (s *TeacherService) GetMyProfile(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	profile, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}
	return profile, nil
}

// GetMyCourses lists the acting teacher's courses.
func (s *TeacherService) GetMyCourses(ctx context.Context, teacherID string, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	filter.TeacherID = teacherID
	courses, total, err := s.courses.List(ctx, filter)
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

// UpdateUserRole grants or revokes the teacher role for the target user.
// Granting an existing teacher or revoking a non-teacher is a conflict.
func (s *TeacherService) UpdateUserRole(ctx context.Context, req UpdateUserRoleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if *req.IsTeacher {
		teacher := &models.Teacher{UserID: req.UserID}
		if err := s.repo.Create(ctx, teacher); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return appErrors.Clone(appErrors.ErrConflict, "user is already a teacher")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant teacher role")
		}
		s.logger.Info("teacher role granted", zap.String("user_id", req.UserID), zap.String("teacher_id", teacher.ID))
		return nil
	}

	removed, err := s.repo.DeleteByUserID(ctx, req.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke teacher role")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrConflict, "user is not a teacher")
	}
	s.logger.Info("teacher role revoked", zap.String("user_id", req.UserID))
	return nil
}

// ExportCourseGrades renders the grade roster of a course owned by the
// acting teacher as CSV or PDF.
func (s *TeacherService) ExportCourseGrades(ctx context.Context, teacherID, courseID, format string) (*ExportFile, error) {
	course, err := s.coursesByID.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}

	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}

	file, err := s.exporter.RenderCourseGrades(course, grades, format)
	if err != nil {
		return nil, err
	}

	s.logger.Info("course grades exported", zap.String("course_id", courseID), zap.String("format", format))
	return file, nil
}
