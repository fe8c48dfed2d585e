package models

import "time"

// Enrollment links one student to one course. The pair
// (student_id, course_id) is unique: a student enrolls at most once.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail embeds the full course record for student listings.
type EnrollmentDetail struct {
	Enrollment
	Course Course `json:"course"`
}

// EnrollmentFilter provides filters for a student's enrollment listing.
type EnrollmentFilter struct {
	Search   string
	Page     int
	PageSize int
}
