package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

// StudentRepository manages persistence for student role profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student profile by its identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, created_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID resolves the student profile for a user identity.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, created_at FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindProfileByUserID returns the student profile joined with user fields.
func (r *StudentRepository) FindProfileByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT s.id, s.user_id, s.created_at, u.email, u.first_name, u.last_name
        FROM students s
        JOIN users u ON u.id = s.user_id
        WHERE s.user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}
