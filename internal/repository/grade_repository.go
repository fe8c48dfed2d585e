package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

const gradeDetailColumns = `g.id, g.student_id, g.course_id, g.teacher_id, g.grade, g.created_at, g.updated_at,
        u.email AS student_email, u.first_name AS student_first_name, u.last_name AS student_last_name,
        c.code AS course_code, c.title AS course_title`

const gradeDetailJoins = `FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN users u ON u.id = s.user_id
        JOIN courses c ON c.id = g.course_id`

// GradeRepository handles grade persistence and aggregate statistics.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByID returns a grade by identifier.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, student_id, course_id, teacher_id, grade, created_at, updated_at FROM grades WHERE id = $1 LIMIT 1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// FindDetailByID returns a grade joined with student and course context.
func (r *GradeRepository) FindDetailByID(ctx context.Context, id string) (*models.GradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE g.id = $1 LIMIT 1`, gradeDetailColumns, gradeDetailJoins)
	var detail models.GradeDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a new grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, teacher_id, grade, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :teacher_id, :grade, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// UpdateValue updates the numeric mark of a grade.
func (r *GradeRepository) UpdateValue(ctx context.Context, id string, value float64) (*models.Grade, error) {
	const query = `UPDATE grades SET grade = $2, updated_at = $3 WHERE id = $1
        RETURNING id, student_id, course_id, teacher_id, grade, created_at, updated_at`
	var updated models.Grade
	if err := r.db.GetContext(ctx, &updated, query, id, value, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a grade record.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}

// ListByCourse returns all grades in a course with student context.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE g.course_id = $1 ORDER BY g.created_at ASC`, gradeDetailColumns, gradeDetailJoins)
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	return grades, nil
}

// ListByStudent returns all of a student's grades with course context.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE g.student_id = $1 ORDER BY g.created_at ASC`, gradeDetailColumns, gradeDetailJoins)
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// FindByStudentAndCourse returns the student's grade for a course.
func (r *GradeRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.GradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE g.student_id = $1 AND g.course_id = $2 LIMIT 1`, gradeDetailColumns, gradeDetailJoins)
	var detail models.GradeDetail
	if err := r.db.GetContext(ctx, &detail, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CourseStats aggregates count, average, min and max over a course's
// grades in a single query.
func (r *GradeRepository) CourseStats(ctx context.Context, courseID string) (*models.CourseGradeStats, error) {
	const query = `SELECT $1 AS course_id, COUNT(*) AS total_grades,
        COALESCE(AVG(grade), 0) AS average_grade,
        COALESCE(MAX(grade), 0) AS highest_grade,
        COALESCE(MIN(grade), 0) AS lowest_grade
        FROM grades WHERE course_id = $1`
	var stats models.CourseGradeStats
	if err := r.db.GetContext(ctx, &stats, query, courseID); err != nil {
		return nil, fmt.Errorf("course grade stats: %w", err)
	}
	return &stats, nil
}

// StudentStatsRow carries the raw aggregate over one student's grades.
type StudentStatsRow struct {
	TotalCourses int     `db:"total_courses"`
	AverageGrade float64 `db:"average_grade"`
	HighestGrade float64 `db:"highest_grade"`
	LowestGrade  float64 `db:"lowest_grade"`
}

// StudentStats aggregates one student's grades across all courses. A
// student with no grades yields the zero row, not an error.
func (r *GradeRepository) StudentStats(ctx context.Context, studentID string) (*StudentStatsRow, error) {
	const query = `SELECT COUNT(*) AS total_courses,
        COALESCE(AVG(grade), 0) AS average_grade,
        COALESCE(MAX(grade), 0) AS highest_grade,
        COALESCE(MIN(grade), 0) AS lowest_grade
        FROM grades WHERE student_id = $1`
	var row StudentStatsRow
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return nil, fmt.Errorf("student grade stats: %w", err)
	}
	return &row, nil
}
