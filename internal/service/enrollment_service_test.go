package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk-api/internal/models"
	"github.com/coursedesk/coursedesk-api/internal/repository"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	exists      bool
	createErr   error
	created     *models.Enrollment
	withdrawn   *models.Enrollment
	listed      []models.EnrollmentDetail
	listTotal   int
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.exists, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	enrollment.ID = "new-enroll"
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return m.listed, m.listTotal, nil
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Withdraw(ctx context.Context, enrollment *models.Enrollment) error {
	m.withdrawn = enrollment
	return nil
}

func courseReaderWith(courses ...models.Course) *mockCourseRepo {
	repo := &mockCourseRepo{byCode: map[string]models.Course{}, byID: map[string]models.Course{}}
	for _, c := range courses {
		repo.byCode[c.Code] = c
		repo.byID[c.ID] = c
	}
	return repo
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := NewEnrollmentService(repo, courseReaderWith(models.Course{ID: "c1", Code: "GO-101"}), nil, nil)

	enrollment, err := svc.Enroll(context.Background(), "s1", EnrollRequest{CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", enrollment.StudentID)
	assert.Equal(t, "c1", enrollment.CourseID)
}

func TestEnrollmentServiceEnrollMissingCourse(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, courseReaderWith(), nil, nil)

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{CourseID: "missing"})
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}

func TestEnrollmentServiceEnrollTwiceConflicts(t *testing.T) {
	repo := &mockEnrollmentRepo{exists: true}
	svc := NewEnrollmentService(repo, courseReaderWith(models.Course{ID: "c1"}), nil, nil)

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{CourseID: "c1"})
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(t, err))
}

func TestEnrollmentServiceEnrollConstraintRaceConflicts(t *testing.T) {
	repo := &mockEnrollmentRepo{createErr: repository.ErrDuplicate}
	svc := NewEnrollmentService(repo, courseReaderWith(models.Course{ID: "c1"}), nil, nil)

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{CourseID: "c1"})
	assert.Equal(t, appErrors.ErrConflict.Code, errCode(t, err))
}

func TestEnrollmentServiceGetByIDOtherStudentForbidden(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "someone-else", CourseID: "c1"},
	}}
	svc := NewEnrollmentService(repo, courseReaderWith(), nil, nil)

	_, err := svc.GetByID(context.Background(), "s1", "e1")
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
}

func TestEnrollmentServiceWithdraw(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1"},
	}}
	svc := NewEnrollmentService(repo, courseReaderWith(), nil, nil)

	require.NoError(t, svc.Withdraw(context.Background(), "s1", "e1"))
	require.NotNil(t, repo.withdrawn)
	assert.Equal(t, "e1", repo.withdrawn.ID)
}

func TestEnrollmentServiceWithdrawGuards(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "someone-else", CourseID: "c1"},
	}}
	svc := NewEnrollmentService(repo, courseReaderWith(), nil, nil)

	err := svc.Withdraw(context.Background(), "s1", "e1")
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
	assert.Nil(t, repo.withdrawn)

	err = svc.Withdraw(context.Background(), "s1", "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}

func TestEnrollmentServiceGetMyEnrollmentsPagination(t *testing.T) {
	repo := &mockEnrollmentRepo{listed: []models.EnrollmentDetail{{}}, listTotal: 7}
	svc := NewEnrollmentService(repo, courseReaderWith(), nil, nil)

	_, pagination, err := svc.GetMyEnrollments(context.Background(), "s1", models.EnrollmentFilter{Page: -1, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 7, pagination.TotalCount)
}
