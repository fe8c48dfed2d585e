package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coursedesk/coursedesk-api/internal/models"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
	"github.com/coursedesk/coursedesk-api/pkg/response"
)

// Context keys storing the resolved role profiles.
const (
	ContextTeacherKey = "currentTeacher"
	ContextStudentKey = "currentStudent"
)

// TeacherResolver resolves the teacher profile of a user identity.
type TeacherResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// StudentResolver resolves the student profile of a user identity.
type StudentResolver interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// TeacherGuard requires the authenticated user to hold a teacher profile.
// The role is derived on every request from the profile row, never from
// the token.
func TeacherGuard(resolver TeacherResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		teacher, err := resolver.FindByUserID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrRoleMismatch, "you are not a teacher"))
			} else {
				logger.Error("teacher resolution failed", zap.String("user_id", claims.Subject), zap.Error(err))
				response.Error(c, appErrors.ErrInternal)
			}
			c.Abort()
			return
		}

		c.Set(ContextTeacherKey, teacher)
		c.Next()
	}
}

// StudentGuard requires the authenticated user to hold a student profile.
func StudentGuard(resolver StudentResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		student, err := resolver.FindByUserID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrRoleMismatch, "you are not a student"))
			} else {
				logger.Error("student resolution failed", zap.String("user_id", claims.Subject), zap.Error(err))
				response.Error(c, appErrors.ErrInternal)
			}
			c.Abort()
			return
		}

		c.Set(ContextStudentKey, student)
		c.Next()
	}
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
