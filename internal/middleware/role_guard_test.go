package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk-api/internal/models"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
	"github.com/coursedesk/coursedesk-api/pkg/response"
)

type teacherResolverMock struct {
	teachers map[string]models.Teacher
}

func (m *teacherResolverMock) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	if t, ok := m.teachers[userID]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

type studentResolverMock struct {
	students map[string]models.Student
}

func (m *studentResolverMock) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	if s, ok := m.students[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newGuardContext(t *testing.T, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	c.Request = req
	if userID != "" {
		c.Set(ContextUserKey, &models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}})
	}
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestTeacherGuardRoleMismatch(t *testing.T) {
	c, w := newGuardContext(t, "u1")
	guard := TeacherGuard(&teacherResolverMock{}, nil)

	guard(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrRoleMismatch.Code, envelope.Error.Code)
	assert.Equal(t, "you are not a teacher", envelope.Error.Message)
}

func TestTeacherGuardAttachesProfile(t *testing.T) {
	c, _ := newGuardContext(t, "u1")
	guard := TeacherGuard(&teacherResolverMock{teachers: map[string]models.Teacher{
		"u1": {ID: "t1", UserID: "u1"},
	}}, nil)

	guard(c)

	assert.False(t, c.IsAborted())
	value, exists := c.Get(ContextTeacherKey)
	require.True(t, exists)
	teacher, ok := value.(*models.Teacher)
	require.True(t, ok)
	assert.Equal(t, "t1", teacher.ID)
}

func TestStudentGuardRoleMismatch(t *testing.T) {
	c, w := newGuardContext(t, "u1")
	guard := StudentGuard(&studentResolverMock{}, nil)

	guard(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrRoleMismatch.Code, envelope.Error.Code)
	assert.Equal(t, "you are not a student", envelope.Error.Message)
}

func TestStudentGuardAttachesProfile(t *testing.T) {
	c, _ := newGuardContext(t, "u2")
	guard := StudentGuard(&studentResolverMock{students: map[string]models.Student{
		"u2": {ID: "s1", UserID: "u2"},
	}}, nil)

	guard(c)

	assert.False(t, c.IsAborted())
	value, exists := c.Get(ContextStudentKey)
	require.True(t, exists)
	student, ok := value.(*models.Student)
	require.True(t, ok)
	assert.Equal(t, "s1", student.ID)
}

func TestGuardsRequireAuthentication(t *testing.T) {
	c, w := newGuardContext(t, "")
	TeacherGuard(&teacherResolverMock{}, nil)(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGuardContext(t, "")
	StudentGuard(&studentResolverMock{}, nil)(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
