package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk-api/internal/models"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type mockScheduleRepo struct {
	schedules map[string]models.Schedule
	byCourse  []models.Schedule
	created   *models.Schedule
	updated   *models.SchedulePatch
	deleted   []string
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	return m.byCourse, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "new-schedule"
	m.created = schedule
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, id string, patch models.SchedulePatch) (*models.Schedule, error) {
	m.updated = &patch
	s := m.schedules[id]
	return &s, nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestScheduleServiceAddToOwnedCourse(t *testing.T) {
	repo := &mockScheduleRepo{}
	courses := courseReaderWith(models.Course{ID: "c1", Code: "GO-101", TeacherID: "t1"})
	svc := NewScheduleService(repo, courses, nil, nil)

	schedule, err := svc.Add(context.Background(), "t1", "GO-101", CreateScheduleRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", schedule.CourseID)
}

func TestScheduleServiceAddForeignCourseForbidden(t *testing.T) {
	courses := courseReaderWith(models.Course{ID: "c1", Code: "GO-101", TeacherID: "someone-else"})
	svc := NewScheduleService(&mockScheduleRepo{}, courses, nil, nil)

	_, err := svc.Add(context.Background(), "t1", "GO-101", CreateScheduleRequest{
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30",
	})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
}

func TestScheduleServiceAddRejectsBadDay(t *testing.T) {
	courses := courseReaderWith(models.Course{ID: "c1", Code: "GO-101", TeacherID: "t1"})
	svc := NewScheduleService(&mockScheduleRepo{}, courses, nil, nil)

	_, err := svc.Add(context.Background(), "t1", "GO-101", CreateScheduleRequest{
		DayOfWeek: 7, StartTime: "09:00", EndTime: "10:30",
	})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(t, err))
}

func TestScheduleServiceMutationsResolveOwnershipThroughCourse(t *testing.T) {
	repo := &mockScheduleRepo{schedules: map[string]models.Schedule{
		"sch1": {ID: "sch1", CourseID: "c1"},
	}}
	courses := courseReaderWith(models.Course{ID: "c1", Code: "GO-101", TeacherID: "owner"})
	svc := NewScheduleService(repo, courses, nil, nil)

	_, err := svc.Update(context.Background(), "intruder", "sch1", UpdateScheduleRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))

	_, err = svc.Remove(context.Background(), "intruder", "sch1")
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
	assert.Empty(t, repo.deleted)

	_, err = svc.Remove(context.Background(), "owner", "sch1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sch1"}, repo.deleted)
}

func TestScheduleServiceListByCourseCode(t *testing.T) {
	repo := &mockScheduleRepo{byCourse: []models.Schedule{
		{ID: "sch1", CourseID: "c1", DayOfWeek: 1},
		{ID: "sch2", CourseID: "c1", DayOfWeek: 3},
	}}
	courses := courseReaderWith(models.Course{ID: "c1", Code: "GO-101", Title: "Go", TeacherID: "t1"})
	svc := NewScheduleService(repo, courses, nil, nil)

	result, err := svc.ListByCourseCode(context.Background(), "GO-101")
	require.NoError(t, err)
	assert.Equal(t, "Go", result.Course.Title)
	assert.Len(t, result.Schedules, 2)

	_, err = svc.ListByCourseCode(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}

func TestScheduleServiceGetByIDMissing(t *testing.T) {
	svc := NewScheduleService(&mockScheduleRepo{}, courseReaderWith(), nil, nil)

	_, err := svc.GetByID(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}
