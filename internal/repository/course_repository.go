package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

const courseColumns = `id, code, title, description, teacher_id, start_date, end_date, room, created_at, updated_at`

// CourseRepository handles course persistence including the transactional
// writes that keep the course/schedule graph consistent.
type CourseRepository struct {
	db        *sqlx.DB
	schedules *ScheduleRepository
}

// NewCourseRepository constructs a CourseRepository. The schedule
// repository is used for schedule writes that share a course transaction.
func NewCourseRepository(db *sqlx.DB, schedules *ScheduleRepository) *CourseRepository {
	return &CourseRepository{db: db, schedules: schedules}
}

// FindByCode returns a course by its unique code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE code = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateWithSchedules inserts the course row and all supplied schedule rows
// in one transaction: either every row commits or none do. A concurrent
// create with the same code surfaces as ErrDuplicate from the unique
// constraint on courses.code.
func (r *CourseRepository) CreateWithSchedules(ctx context.Context, course *models.Course, schedules []models.Schedule) (err error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO courses (id, code, title, description, teacher_id, start_date, end_date, room, created_at, updated_at)
        VALUES (:id, :code, :title, :description, :teacher_id, :start_date, :end_date, :room, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, course); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicate
			return err
		}
		err = fmt.Errorf("create course: %w", err)
		return err
	}

	for i := range schedules {
		schedules[i].CourseID = course.ID
	}
	if err = r.schedules.BulkCreateWithTx(ctx, tx, schedules); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

// UpdateByCode patches course fields and, when patch.Schedule is non-nil,
// replaces the whole schedule set, all inside one transaction. A failed
// replacement leaves the original schedules untouched.
func (r *CourseRepository) UpdateByCode(ctx context.Context, code string, patch models.CoursePatch) (course *models.Course, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	if patch.Room != nil {
		add("room", *patch.Room)
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE courses SET %s WHERE code = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)+1, courseColumns)
	args = append(args, code)

	var updated models.Course
	if err = tx.GetContext(ctx, &updated, query, args...); err != nil {
		err = fmt.Errorf("update course: %w", err)
		return nil, err
	}

	if patch.Schedule != nil {
		if err = r.schedules.DeleteByCourseWithTx(ctx, tx, updated.ID); err != nil {
			return nil, err
		}
		for i := range patch.Schedule {
			patch.Schedule[i].CourseID = updated.ID
		}
		if err = r.schedules.BulkCreateWithTx(ctx, tx, patch.Schedule); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update course: %w", err)
	}
	return &updated, nil
}

// Delete removes a course and everything hanging off it — grades,
// enrollments, schedules — in one transaction so no orphans survive.
func (r *CourseRepository) Delete(ctx context.Context, courseID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	steps := []string{
		`DELETE FROM grades WHERE course_id = $1`,
		`DELETE FROM enrollments WHERE course_id = $1`,
		`DELETE FROM schedules WHERE course_id = $1`,
		`DELETE FROM courses WHERE id = $1`,
	}
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, step, courseID); err != nil {
			err = fmt.Errorf("delete course graph: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course: %w", err)
	}
	return nil
}

// List returns a page of courses and the total count. Both reads happen in
// one transaction so the count always matches the page under concurrent
// writes.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) (courses []models.Course, total int, err error) {
	base := "FROM courses WHERE 1=1"
	var args []interface{}

	if filter.TeacherID != "" {
		base += fmt.Sprintf(" AND teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		base += fmt.Sprintf(" AND (title ILIKE $%d OR COALESCE(description, '') ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, search)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list courses: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", courseColumns, base, size, offset)
	if err = tx.SelectContext(ctx, &courses, query, args...); err != nil {
		err = fmt.Errorf("list courses: %w", err)
		return nil, 0, err
	}

	countQuery := "SELECT COUNT(*) " + base
	if err = tx.GetContext(ctx, &total, countQuery, args...); err != nil {
		err = fmt.Errorf("count courses: %w", err)
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit list courses: %w", err)
	}
	return courses, total, nil
}
