package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursedesk/coursedesk-api/internal/service"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
	"github.com/coursedesk/coursedesk-api/pkg/response"
)

// ScheduleHandler exposes schedule endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Get godoc
// @Summary Get a schedule slot
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.schedules.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ListByCourse godoc
// @Summary List schedule slots of a course
// @Tags Schedules
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/course/{courseId} [get]
func (h *ScheduleHandler) ListByCourse(c *gin.Context) {
	schedules, err := h.schedules.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// ListByCourseCode godoc
// @Summary Get a course with its weekly schedule
// @Tags Schedules
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code}/schedules [get]
func (h *ScheduleHandler) ListByCourseCode(c *gin.Context) {
	result, err := h.schedules.ListByCourseCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Add a schedule slot to an owned course
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{code}/schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.schedules.Add(c.Request.Context(), teacher.ID, c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update a schedule slot on an owned course
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param payload body service.UpdateScheduleRequest true "Schedule patch"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [patch]
func (h *ScheduleHandler) Update(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.schedules.Update(c.Request.Context(), teacher.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a schedule slot on an owned course
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	teacher := teacherFromContext(c)
	if teacher == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	schedule, err := h.schedules.Remove(c.Request.Context(), teacher.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
