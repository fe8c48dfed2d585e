package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

// TeacherRepository manages persistence for teacher role profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID returns a teacher profile by its identifier.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, created_at FROM teachers WHERE id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID resolves the teacher profile for a user identity.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, created_at FROM teachers WHERE user_id = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindProfileByUserID returns the teacher profile joined with user fields.
func (r *TeacherRepository) FindProfileByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	const query = `SELECT t.id, t.user_id, t.created_at, u.email, u.first_name, u.last_name
        FROM teachers t
        JOIN users u ON u.id = t.user_id
        WHERE t.user_id = $1 LIMIT 1`
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create persists a new teacher profile for a user.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, user_id, created_at) VALUES (:id, :user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// DeleteByUserID removes the teacher profile for a user, reporting whether
// a row was deleted.
func (r *TeacherRepository) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete teacher affected rows: %w", err)
	}
	return affected > 0, nil
}
