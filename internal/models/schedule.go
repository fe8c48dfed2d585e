package models

import "time"

// Schedule is a weekly session slot belonging to a course.
// DayOfWeek is 0..6 with 0 = Sunday; times are HH:mm strings.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      *string   `db:"room" json:"room,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SchedulePatch carries optional schedule field updates.
type SchedulePatch struct {
	DayOfWeek *int
	StartTime *string
	EndTime   *string
	Room      *string
}

// CourseSchedules pairs a course header with its calendar-ordered slots.
type CourseSchedules struct {
	Course    CourseHeader `json:"course"`
	Schedules []Schedule   `json:"schedules"`
}

// CourseHeader is the public summary embedded in schedule listings.
type CourseHeader struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Code        string    `db:"code" json:"code"`
	Description *string   `db:"description" json:"description,omitempty"`
	Room        *string   `db:"room" json:"room,omitempty"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
}
