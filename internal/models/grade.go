package models

import "time"

// Grade records a numeric mark a teacher assigned to a student for a
// course. Mutation rights stay with the assigning teacher (teacher_id),
// independent of current course ownership.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Grade     float64   `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail enriches a grade with student and course context.
type GradeDetail struct {
	Grade
	StudentEmail     string  `db:"student_email" json:"student_email"`
	StudentFirstName string  `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string  `db:"student_last_name" json:"student_last_name"`
	CourseCode       string  `db:"course_code" json:"course_code"`
	CourseTitle      string  `db:"course_title" json:"course_title"`
}

// CourseGradeStats aggregates all grades in one course.
type CourseGradeStats struct {
	CourseID     string  `db:"course_id" json:"course_id"`
	TotalGrades  int     `db:"total_grades" json:"total_grades"`
	AverageGrade float64 `db:"average_grade" json:"average_grade"`
	HighestGrade float64 `db:"highest_grade" json:"highest_grade"`
	LowestGrade  float64 `db:"lowest_grade" json:"lowest_grade"`
}

// StudentGradeStats aggregates one student's grades across courses.
// A student with no grades gets the zero value, never an error.
type StudentGradeStats struct {
	TotalCourses int     `json:"total_courses"`
	AverageGrade float64 `json:"average_grade"`
	HighestGrade float64 `json:"highest_grade"`
	LowestGrade  float64 `json:"lowest_grade"`
}
