package models

import "time"

// Teacher is the role profile owning courses and issued grades.
// At most one profile exists per user (unique user_id).
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherProfile joins the role profile with its user identity.
type TeacherProfile struct {
	Teacher
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// Student is the role profile owning enrollments and received grades.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentProfile joins the role profile with its user identity.
type StudentProfile struct {
	Student
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
