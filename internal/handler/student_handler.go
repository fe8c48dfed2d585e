package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursedesk/coursedesk-api/internal/service"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
	"github.com/coursedesk/coursedesk-api/pkg/response"
)

// StudentHandler exposes student-facing endpoints.
type StudentHandler struct {
	students *service.StudentService
	grades   *service.GradeService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, grades *service.GradeService) *StudentHandler {
	return &StudentHandler{students: students, grades: grades}
}

// Me godoc
// @Summary Get my student profile
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.students.GetMyProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// MyGrades godoc
// @Summary List my grades
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students/grades [get]
func (h *StudentHandler) MyGrades(c *gin.Context) {
	student := studentFromContext(c)
	if student == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grades, err := h.grades.MyGrades(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// MyGradeStatistics godoc
// @Summary Aggregate statistics over my grades
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /students/grades/statistics [get]
func (h *StudentHandler) MyGradeStatistics(c *gin.Context) {
	student := studentFromContext(c)
	if student == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.grades.MyGradeStatistics(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// MyGradeByCourse godoc
// @Summary Get my grade in one course
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /students/grades/course/{courseId} [get]
func (h *StudentHandler) MyGradeByCourse(c *gin.Context) {
	student := studentFromContext(c)
	if student == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grade, err := h.grades.MyGradeByCourse(c.Request.Context(), student.ID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}
