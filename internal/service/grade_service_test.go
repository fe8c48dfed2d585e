package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk-api/internal/models"
	"github.com/coursedesk/coursedesk-api/internal/repository"
	appErrors "github.com/coursedesk/coursedesk-api/pkg/errors"
)

type mockGradeRepo struct {
	grades     map[string]models.Grade
	created    *models.Grade
	updated    *models.Grade
	deleted    []string
	byCourse   []models.GradeDetail
	byStudent  []models.GradeDetail
	courseAgg  *models.CourseGradeStats
	studentAgg *repository.StudentStatsRow
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) FindDetailByID(ctx context.Context, id string) (*models.GradeDetail, error) {
	if g, ok := m.grades[id]; ok {
		return &models.GradeDetail{Grade: g}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = "new-grade"
	m.created = grade
	return nil
}

func (m *mockGradeRepo) UpdateValue(ctx context.Context, id string, value float64) (*models.Grade, error) {
	g := m.grades[id]
	g.Grade = value
	m.updated = &g
	return &g, nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockGradeRepo) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	return m.byCourse, nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	return m.byStudent, nil
}

func (m *mockGradeRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.GradeDetail, error) {
	for _, g := range m.grades {
		if g.StudentID == studentID && g.CourseID == courseID {
			return &models.GradeDetail{Grade: g}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) CourseStats(ctx context.Context, courseID string) (*models.CourseGradeStats, error) {
	return m.courseAgg, nil
}

func (m *mockGradeRepo) StudentStats(ctx context.Context, studentID string) (*repository.StudentStatsRow, error) {
	return m.studentAgg, nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentChecker struct {
	enrolled bool
}

func (m *mockEnrollmentChecker) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.enrolled, nil
}

func newGradeService(repo *mockGradeRepo, courses *mockCourseRepo, enrolled bool) *GradeService {
	students := &mockStudentReader{students: map[string]models.Student{"s1": {ID: "s1", UserID: "u1"}}}
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	return NewGradeService(repo, courses, students, &mockEnrollmentChecker{enrolled: enrolled}, cache, nil, time.Minute, nil, nil)
}

func TestGradeServiceAssign(t *testing.T) {
	repo := &mockGradeRepo{}
	courses := courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"})
	svc := newGradeService(repo, courses, true)

	grade, err := svc.Assign(context.Background(), "t1", AssignGradeRequest{StudentID: "s1", CourseID: "c1", Grade: 88})
	require.NoError(t, err)
	assert.Equal(t, "t1", grade.TeacherID)
	assert.Equal(t, 88.0, grade.Grade)
}

func TestGradeServiceAssignForeignCourseForbidden(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, courseReaderWith(models.Course{ID: "c1", TeacherID: "someone-else"}), true)

	_, err := svc.Assign(context.Background(), "t1", AssignGradeRequest{StudentID: "s1", CourseID: "c1", Grade: 88})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
}

func TestGradeServiceAssignRequiresEnrollment(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"}), false)

	_, err := svc.Assign(context.Background(), "t1", AssignGradeRequest{StudentID: "s1", CourseID: "c1", Grade: 88})
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}

func TestGradeServiceAssignUnknownStudent(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"}), true)

	_, err := svc.Assign(context.Background(), "t1", AssignGradeRequest{StudentID: "ghost", CourseID: "c1", Grade: 88})
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}

func TestGradeServiceAssignRejectsOutOfRangeMark(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"}), true)

	_, err := svc.Assign(context.Background(), "t1", AssignGradeRequest{StudentID: "s1", CourseID: "c1", Grade: 101})
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(t, err))
}

func TestGradeServiceMutationsFollowAssigningTeacher(t *testing.T) {
	repo := &mockGradeRepo{grades: map[string]models.Grade{
		"g1": {ID: "g1", StudentID: "s1", CourseID: "c1", TeacherID: "assigner", Grade: 70},
	}}
	// The course changed hands; the new owner still cannot touch the grade.
	courses := courseReaderWith(models.Course{ID: "c1", TeacherID: "new-owner"})
	svc := newGradeService(repo, courses, true)

	_, err := svc.Update(context.Background(), "new-owner", "g1", UpdateGradeRequest{Grade: 95})
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))

	err = svc.Remove(context.Background(), "new-owner", "g1")
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))

	updated, err := svc.Update(context.Background(), "assigner", "g1", UpdateGradeRequest{Grade: 95})
	require.NoError(t, err)
	assert.Equal(t, 95.0, updated.Grade)

	require.NoError(t, svc.Remove(context.Background(), "assigner", "g1"))
	assert.Equal(t, []string{"g1"}, repo.deleted)
}

func TestGradeServiceListByCourseOwnerOnly(t *testing.T) {
	repo := &mockGradeRepo{byCourse: []models.GradeDetail{{}}}
	svc := newGradeService(repo, courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"}), true)

	grades, err := svc.ListByCourse(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Len(t, grades, 1)

	_, err = svc.ListByCourse(context.Background(), "t2", "c1")
	assert.Equal(t, appErrors.ErrForbidden.Code, errCode(t, err))
}

func TestGradeServiceCourseStatisticsRoundsAverage(t *testing.T) {
	repo := &mockGradeRepo{courseAgg: &models.CourseGradeStats{
		CourseID: "c1", TotalGrades: 3, AverageGrade: 83.333333, HighestGrade: 95, LowestGrade: 70,
	}}
	svc := newGradeService(repo, courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"}), true)

	stats, err := svc.CourseStatistics(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 83.33, stats.AverageGrade)
}

func TestGradeServiceMyGradeStatisticsZeroState(t *testing.T) {
	repo := &mockGradeRepo{studentAgg: &repository.StudentStatsRow{}}
	svc := newGradeService(repo, courseReaderWith(), true)

	stats, err := svc.MyGradeStatistics(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, &models.StudentGradeStats{}, stats)
}

func TestGradeServiceMyGradeStatisticsRounding(t *testing.T) {
	repo := &mockGradeRepo{studentAgg: &repository.StudentStatsRow{
		TotalCourses: 3, AverageGrade: 85.678901, HighestGrade: 95, LowestGrade: 70,
	}}
	svc := newGradeService(repo, courseReaderWith(), true)

	stats, err := svc.MyGradeStatistics(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 85.68, stats.AverageGrade)
	assert.Equal(t, 3, stats.TotalCourses)
}

func TestGradeServiceStatisticsRecordQueryTiming(t *testing.T) {
	repo := &mockGradeRepo{
		courseAgg:  &models.CourseGradeStats{CourseID: "c1", TotalGrades: 1, AverageGrade: 80},
		studentAgg: &repository.StudentStatsRow{},
	}
	courses := courseReaderWith(models.Course{ID: "c1", TeacherID: "t1"})
	metrics := NewMetricsService()
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	svc := NewGradeService(repo, courses, &mockStudentReader{}, &mockEnrollmentChecker{}, cache, metrics, time.Minute, nil, nil)

	_, err := svc.CourseStatistics(context.Background(), "c1")
	require.NoError(t, err)
	_, err = svc.MyGradeStatistics(context.Background(), "s1")
	require.NoError(t, err)

	// One series per query label.
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.dbQueryDuration))
}

func TestGradeServiceMyGradeByCourse(t *testing.T) {
	repo := &mockGradeRepo{grades: map[string]models.Grade{
		"g1": {ID: "g1", StudentID: "s1", CourseID: "c1", TeacherID: "t1", Grade: 77},
	}}
	svc := newGradeService(repo, courseReaderWith(), true)

	detail, err := svc.MyGradeByCourse(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 77.0, detail.Grade.Grade)

	_, err = svc.MyGradeByCourse(context.Background(), "s1", "other")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(t, err))
}
