package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursedesk/coursedesk-api/internal/models"
	"github.com/coursedesk/coursedesk-api/internal/repository"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type gradeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	FindDetailByID(ctx context.Context, id string) (*models.GradeDetail, error)
	Create(ctx context.Context, grade *models.Grade) error
	UpdateValue(ctx context.Context, id string, value float64) (*models.Grade, error)
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.GradeDetail, error)
	CourseStats(ctx context.Context, courseID string) (*models.CourseGradeStats, error)
	StudentStats(ctx context.Context, studentID string) (*repository.StudentStatsRow, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentChecker interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
}

// AssignGradeRequest is the payload for assigning a grade.
type AssignGradeRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Grade     float64 `json:"grade" validate:"gte=0,lte=100"`
}

// UpdateGradeRequest carries the new mark for an existing grade.
type UpdateGradeRequest struct {
	Grade float64 `json:"grade" validate:"gte=0,lte=100"`
}

// GradeService manages grade assignment, mutation and statistics.
//
// Mutation rights follow the stored teacher_id of the grade, not the
// current owner of the course.
type GradeService struct {
	repo        gradeRepository
	courses     courseReader
	students    studentReader
	enrollments enrollmentChecker
	cache       *CacheService
	metrics     *MetricsService
	statsTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, courses courseReader, students studentReader, enrollments enrollmentChecker, cache *CacheService, metrics *MetricsService, statsTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		repo:        repo,
		courses:     courses,
		students:    students,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		statsTTL:    statsTTL,
		validator:   validate,
		logger:      logger,
	}
}

func courseStatsCacheKey(courseID string) string {
	return fmt.Sprintf("grades:stats:course:%s", courseID)
}

// Assign records a grade for an enrolled student in a course owned by the
// acting teacher.
func (s *GradeService) Assign(ctx context.Context, teacherID string, req AssignGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrolled, err := s.enrollments.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
	}

	grade := &models.Grade{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		TeacherID: teacherID,
		Grade:     req.Grade,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.cache.Invalidate(ctx, courseStatsCacheKey(req.CourseID))
	s.logger.Info("grade assigned", zap.String("grade_id", grade.ID),
		zap.String("student_id", req.StudentID), zap.String("course_id", req.CourseID))
	return grade, nil
}

// GetByID returns one grade with context, readable only by the teacher
// who assigned it.
func (s *GradeService) GetByID(ctx context.Context, teacherID, gradeID string) (*models.GradeDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, gradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if detail.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the teacher who assigned this grade")
	}
	return detail, nil
}

// Update changes the mark of a grade assigned by the acting teacher.
func (s *GradeService) Update(ctx context.Context, teacherID, gradeID string, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	existing, err := s.loadAssigned(ctx, teacherID, gradeID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateValue(ctx, gradeID, req.Grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}

	s.cache.Invalidate(ctx, courseStatsCacheKey(existing.CourseID))
	return updated, nil
}

// Remove deletes a grade assigned by the acting teacher.
func (s *GradeService) Remove(ctx context.Context, teacherID, gradeID string) error {
	existing, err := s.loadAssigned(ctx, teacherID, gradeID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, gradeID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}

	s.cache.Invalidate(ctx, courseStatsCacheKey(existing.CourseID))
	s.logger.Info("grade deleted", zap.String("grade_id", gradeID))
	return nil
}

// ListByCourse returns all grades of a course owned by the acting teacher.
func (s *GradeService) ListByCourse(ctx context.Context, teacherID, courseID string) ([]models.GradeDetail, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the owner of this course")
	}

	grades, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return grades, nil
}

// CourseStatistics aggregates count, average, highest and lowest over a
// course's grades. Results are cached; grade writes invalidate the entry.
func (s *GradeService) CourseStatistics(ctx context.Context, courseID string) (*models.CourseGradeStats, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	key := courseStatsCacheKey(courseID)
	var cached models.CourseGradeStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	stats, err := s.repo.CourseStats(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	s.metrics.ObserveDBQuery("grade_course_stats", time.Since(start))
	stats.AverageGrade = round2(stats.AverageGrade)

	_ = s.cache.Set(ctx, key, stats, s.statsTTL)
	return stats, nil
}

// MyGrades returns the acting student's grades with course context.
func (s *GradeService) MyGrades(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return grades, nil
}

// MyGradeByCourse returns the acting student's grade for one course.
func (s *GradeService) MyGradeByCourse(ctx context.Context, studentID, courseID string) (*models.GradeDetail, error) {
	detail, err := s.repo.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return detail, nil
}

// MyGradeStatistics aggregates the acting student's grades. A student
// with no grades gets the zero-value result, never an error.
func (s *GradeService) MyGradeStatistics(ctx context.Context, studentID string) (*models.StudentGradeStats, error) {
	start := time.Now()
	row, err := s.repo.StudentStats(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	s.metrics.ObserveDBQuery("grade_student_stats", time.Since(start))
	return &models.StudentGradeStats{
		TotalCourses: row.TotalCourses,
		AverageGrade: round2(row.AverageGrade),
		HighestGrade: row.HighestGrade,
		LowestGrade:  row.LowestGrade,
	}, nil
}

func (s *GradeService) loadAssigned(ctx context.Context, teacherID, gradeID string) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, gradeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if grade.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not the teacher who assigned this grade")
	}
	return grade, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
