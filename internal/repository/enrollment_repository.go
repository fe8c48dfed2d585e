package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

// EnrollmentRepository handles persistence of the student-course
// membership relation.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, created_at FROM enrollments WHERE id = $1 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists reports whether the student already holds an enrollment for the
// course.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment. A concurrent duplicate surfaces as
// ErrDuplicate from the unique (student_id, course_id) constraint.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, created_at)
        VALUES (:id, :student_id, :course_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

type enrollmentCourseRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`

	CCode        string     `db:"c_code"`
	CTitle       string     `db:"c_title"`
	CDescription *string    `db:"c_description"`
	CTeacherID   string     `db:"c_teacher_id"`
	CStartDate   time.Time  `db:"c_start_date"`
	CEndDate     time.Time  `db:"c_end_date"`
	CRoom        *string    `db:"c_room"`
	CCreatedAt   time.Time  `db:"c_created_at"`
	CUpdatedAt   time.Time  `db:"c_updated_at"`
}

func (row enrollmentCourseRow) toDetail() models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			ID:        row.ID,
			StudentID: row.StudentID,
			CourseID:  row.CourseID,
			CreatedAt: row.CreatedAt,
		},
		Course: models.Course{
			ID:          row.CourseID,
			Code:        row.CCode,
			Title:       row.CTitle,
			Description: row.CDescription,
			TeacherID:   row.CTeacherID,
			StartDate:   row.CStartDate,
			EndDate:     row.CEndDate,
			Room:        row.CRoom,
			CreatedAt:   row.CCreatedAt,
			UpdatedAt:   row.CUpdatedAt,
		},
	}
}

const enrollmentDetailColumns = `e.id, e.student_id, e.course_id, e.created_at,
        c.code AS c_code, c.title AS c_title, c.description AS c_description, c.teacher_id AS c_teacher_id,
        c.start_date AS c_start_date, c.end_date AS c_end_date, c.room AS c_room,
        c.created_at AS c_created_at, c.updated_at AS c_updated_at`

// ListByStudent returns one student's enrollments with the full course
// embedded, plus the total count read in the same transaction.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string, filter models.EnrollmentFilter) (details []models.EnrollmentDetail, total int, err error) {
	base := `FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE e.student_id = $1`
	args := []interface{}{studentID}

	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		base += fmt.Sprintf(" AND (c.title ILIKE $%d OR c.code ILIKE $%d OR COALESCE(c.description, '') ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
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
		return nil, 0, fmt.Errorf("begin list enrollments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := fmt.Sprintf("SELECT %s %s ORDER BY e.created_at DESC LIMIT %d OFFSET %d", enrollmentDetailColumns, base, size, offset)
	var rows []enrollmentCourseRow
	if err = tx.SelectContext(ctx, &rows, query, args...); err != nil {
		err = fmt.Errorf("list enrollments: %w", err)
		return nil, 0, err
	}

	if err = tx.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		err = fmt.Errorf("count enrollments: %w", err)
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit list enrollments: %w", err)
	}

	details = make([]models.EnrollmentDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.toDetail())
	}
	return details, total, nil
}

// FindDetailByID returns an enrollment with its course embedded.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE e.id = $1 LIMIT 1`, enrollmentDetailColumns)
	var row enrollmentCourseRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	detail := row.toDetail()
	return &detail, nil
}

// Withdraw deletes the student's grades for the enrollment's course and
// then the enrollment itself, in one transaction. Grades go first so the
// store never sees a grade without its enrollment.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, enrollment *models.Enrollment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin withdraw: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM grades WHERE student_id = $1 AND course_id = $2`, enrollment.StudentID, enrollment.CourseID); err != nil {
		err = fmt.Errorf("delete enrollment grades: %w", err)
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, enrollment.ID); err != nil {
		err = fmt.Errorf("delete enrollment: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit withdraw: %w", err)
	}
	return nil
}

// ListRosterByCourse returns a course's enrollments in enrollment order
// (earliest first), each joined with the student's public user fields.
func (r *EnrollmentRepository) ListRosterByCourse(ctx context.Context, courseID string) ([]models.EnrolledStudent, error) {
	const query = `SELECT e.id AS enrollment_id, e.created_at AS enrolled_at, s.id AS student_id,
        u.id AS user_id, u.email, u.first_name, u.last_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        WHERE e.course_id = $1
        ORDER BY e.created_at ASC`
	rows, err := r.db.QueryxContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list course roster: %w", err)
	}
	defer rows.Close()

	var roster []models.EnrolledStudent
	for rows.Next() {
		var row struct {
			EnrollmentID string    `db:"enrollment_id"`
			EnrolledAt   time.Time `db:"enrolled_at"`
			StudentID    string    `db:"student_id"`
			UserID       string    `db:"user_id"`
			Email        string    `db:"email"`
			FirstName    string    `db:"first_name"`
			LastName     string    `db:"last_name"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		roster = append(roster, models.EnrolledStudent{
			EnrollmentID: row.EnrollmentID,
			StudentID:    row.StudentID,
			EnrolledAt:   row.EnrolledAt,
			User: models.UserPublic{
				ID:        row.UserID,
				Email:     row.Email,
				FirstName: row.FirstName,
				LastName:  row.LastName,
			},
		})
	}
	return roster, rows.Err()
}
