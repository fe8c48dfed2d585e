package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coursedesk/coursedesk-api/internal/models"
	"github.com/coursedesk/coursedesk-api/internal/service"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
	"github.com/coursedesk/coursedesk-api/pkg/response"
)

// TeacherHandler exposes teacher-facing endpoints.
type TeacherHandler struct {
	teachers *service.TeacherService
	grades   *service.GradeService
}

// NewTeacherHandler constructs TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService, grades *service.GradeService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, grades: grades}
}

// Me godoc
// @Summary Get my teacher profile
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teachers/me [get]
func (h *TeacherHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.teachers.GetMyProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// MyCourses godoc
// @Summary List my courses
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search in title and description"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers/my-courses [get]
func (h *TeacherHandler) MyCourses(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.CourseFilter
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.teachers.GetMyCourses(c.Request.Context(), teacher.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// UpdateUserRole godoc
// @Summary Grant or revoke the teacher role of a user
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateUserRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/users/role [patch]
func (h *TeacherHandler) UpdateUserRole(c *gin.Context) {
	var req service.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.teachers.UpdateUserRole(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user_id": req.UserID, "is_teacher": *req.IsTeacher}, nil)
}

// AssignGrade godoc
// @Summary Assign a grade to an enrolled student
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AssignGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /teachers/grades [post]
func (h *TeacherHandler) AssignGrade(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AssignGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Assign(c.Request.Context(), teacher.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// GetGrade godoc
// @Summary Get a grade I assigned
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param gradeId path string true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/grades/{gradeId} [get]
func (h *TeacherHandler) GetGrade(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := h.grades.GetByID(c.Request.Context(), teacher.ID, c.Param("gradeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// UpdateGrade godoc
// @Summary Update a grade I assigned
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gradeId path string true "Grade ID"
// @Param payload body service.UpdateGradeRequest true "Grade patch"
// @Success 200 {object} response.Envelope
// @Router /teachers/grades/{gradeId} [patch]
func (h *TeacherHandler) UpdateGrade(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), teacher.ID, c.Param("gradeId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// DeleteGrade godoc
// @Summary Delete a grade I assigned
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param gradeId path string true "Grade ID"
// @Success 204 {object} nil
// @Router /teachers/grades/{gradeId} [delete]
func (h *TeacherHandler) DeleteGrade(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.grades.Remove(c.Request.Context(), teacher.ID, c.Param("gradeId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CourseGrades godoc
// @Summary List grades of an owned course
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/courses/{courseId}/grades [get]
func (h *TeacherHandler) CourseGrades(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grades, err := h.grades.ListByCourse(c.Request.Context(), teacher.ID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// CourseStatistics godoc
// @Summary Aggregate grade statistics of a course
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/courses/{courseId}/statistics [get]
func (h *TeacherHandler) CourseStatistics(c *gin.Context) {
	stats, err := h.grades.CourseStatistics(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportCourseGrades godoc
// @Summary Export the grade roster of an owned course
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /teachers/courses/{courseId}/grades/export [get]
func (h *TeacherHandler) ExportCourseGrades(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.teachers.ExportCourseGrades(c.Request.Context(), teacher.ID, c.Param("courseId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.FileName)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
