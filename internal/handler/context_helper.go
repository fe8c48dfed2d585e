package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/coursedesk/coursedesk-api/internal/middleware"
	"github.com/coursedesk/coursedesk-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func teacherFromContext(c *gin.Context) *models.Teacher {
	value, exists := c.Get(middleware.ContextTeacherKey)
	if !exists {
		return nil
	}
	teacher, ok := value.(*models.Teacher)
	if !ok {
		return nil
	}
	return teacher
}

func studentFromContext(c *gin.Context) *models.Student {
	value, exists := c.Get(middleware.ContextStudentKey)
	if !exists {
		return nil
	}
	student, ok := value.(*models.Student)
	if !ok {
		return nil
	}
	return student
}
