package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Courses     *CourseHandler
	Schedules   *ScheduleHandler
	Enrollments *EnrollmentHandler
	Teachers    *TeacherHandler
	Students    *StudentHandler
}

// Guards bundles the auth middleware chain. JWT authenticates; the role
// guards additionally resolve the teacher or student profile.
type Guards struct {
	JWT     gin.HandlerFunc
	Teacher gin.HandlerFunc
	Student gin.HandlerFunc
}

// RegisterRoutes mounts all API routes on the group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, g Guards) {
	courses := api.Group("/courses")
	{
		courses.GET("", h.Courses.List)
		courses.GET("/:code", h.Courses.Get)
		courses.GET("/:code/schedules", h.Schedules.ListByCourseCode)

		courses.POST("", g.JWT, g.Teacher, h.Courses.Create)
		courses.PATCH("/:code", g.JWT, g.Teacher, h.Courses.Update)
		courses.DELETE("/:code", g.JWT, g.Teacher, h.Courses.Delete)
		courses.POST("/:code/schedules", g.JWT, g.Teacher, h.Schedules.Create)
	}

	schedules := api.Group("/schedules")
	{
		schedules.GET("/course/:courseId", h.Schedules.ListByCourse)
		schedules.GET("/:id", h.Schedules.Get)
		schedules.PATCH("/:id", g.JWT, g.Teacher, h.Schedules.Update)
		schedules.DELETE("/:id", g.JWT, g.Teacher, h.Schedules.Delete)
	}

	enrollments := api.Group("/enrollments", g.JWT, g.Student)
	{
		enrollments.POST("", h.Enrollments.Create)
		enrollments.GET("/me", h.Enrollments.ListMine)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.DELETE("/:id", h.Enrollments.Delete)
	}

	teachers := api.Group("/teachers", g.JWT, g.Teacher)
	{
		teachers.GET("/me", h.Teachers.Me)
		teachers.GET("/my-courses", h.Teachers.MyCourses)
		teachers.PATCH("/users/role", h.Teachers.UpdateUserRole)

		teachers.GET("/courses/:courseId/enrollments", h.Courses.EnrolledStudents)
		teachers.GET("/courses/:courseId/grades", h.Teachers.CourseGrades)
		teachers.GET("/courses/:courseId/statistics", h.Teachers.CourseStatistics)
		teachers.GET("/courses/:courseId/grades/export", h.Teachers.ExportCourseGrades)

		teachers.POST("/grades", h.Teachers.AssignGrade)
		teachers.GET("/grades/:gradeId", h.Teachers.GetGrade)
		teachers.PATCH("/grades/:gradeId", h.Teachers.UpdateGrade)
		teachers.DELETE("/grades/:gradeId", h.Teachers.DeleteGrade)
	}

	students := api.Group("/students", g.JWT, g.Student)
	{
		students.GET("/me", h.Students.Me)
		students.GET("/grades", h.Students.MyGrades)
		students.GET("/grades/statistics", h.Students.MyGradeStatistics)
		students.GET("/grades/course/:courseId", h.Students.MyGradeByCourse)
	}
}
