package models

import "time"

// Course is a catalog entry owned by exactly one teacher.
// The teacher_id never changes after creation.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	Room        *string   `db:"room" json:"room,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search    string
	TeacherID string
	Page      int
	PageSize  int
}

// CoursePatch carries the optional course field updates. Nil fields are
// left untouched; Schedule non-nil replaces the whole schedule set.
type CoursePatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Room        *string
	Schedule    []Schedule
}

// EnrolledStudent is one roster row for a course.
type EnrolledStudent struct {
	EnrollmentID string     `json:"enrollment_id"`
	StudentID    string     `json:"student_id"`
	User         UserPublic `json:"user"`
	EnrolledAt   time.Time  `json:"enrolled_at"`
}

// CourseRoster is the enrolled-students view of a course.
type CourseRoster struct {
	CourseID      string            `json:"course_id"`
	CourseTitle   string            `json:"course_title"`
	TotalEnrolled int               `json:"total_enrolled"`
	Students      []EnrolledStudent `json:"students"`
}
