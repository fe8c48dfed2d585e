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

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListByStudent(ctx context.Context, studentID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Withdraw(ctx context.Context, enrollment *models.Enrollment) error
}

// EnrollRequest is the payload for enrolling into a course.
type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// EnrollmentService manages student course membership.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Enroll registers the acting student into a course. The existence
// pre-check is best effort; the unique (student, course) constraint
// resolves concurrent duplicates to the same conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.Exists(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this course")
	}

	enrollment := &models.Enrollment{StudentID: studentID, CourseID: req.CourseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled", zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", studentID), zap.String("course_id", req.CourseID))
	return enrollment, nil
}

// GetMyEnrollments lists the acting student's enrollments with the full
// course embedded.
func (s *EnrollmentService) GetMyEnrollments(ctx context.Context, studentID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	details, total, err := s.repo.ListByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 100 {
		size = 10
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetByID returns one of the acting student's enrollments.
func (s *EnrollmentService) GetByID(ctx context.Context, studentID, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "this enrollment belongs to another student")
	}
	return detail, nil
}

// Withdraw removes the acting student's enrollment and any grades they
// hold for that course, in one transaction.
func (s *EnrollmentService) Withdraw(ctx context.Context, studentID, id string) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "this enrollment belongs to another student")
	}

	if err := s.repo.Withdraw(ctx, enrollment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}

	s.logger.Info("student withdrew", zap.String("enrollment_id", id),
		zap.String("student_id", studentID), zap.String("course_id", enrollment.CourseID))
	return nil
}
