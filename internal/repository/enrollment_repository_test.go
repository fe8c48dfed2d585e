package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

func TestEnrollmentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Enrollment{StudentID: "s1", CourseID: "c1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("s1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("s1", "c2").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.Exists(context.Background(), "s1", "c2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryWithdrawDeletesGradesFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades WHERE student_id = $1 AND course_id = $2")).
		WithArgs("s1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Withdraw(context.Background(), &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryWithdrawRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades WHERE student_id = $1 AND course_id = $2")).
		WithArgs("s1", "c1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Withdraw(context.Background(), &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStudentJoinsCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "course_id", "created_at",
		"c_code", "c_title", "c_description", "c_teacher_id",
		"c_start_date", "c_end_date", "c_room", "c_created_at", "c_updated_at",
	}).AddRow("e1", "s1", "c1", now, "GO-101", "Go", nil, "t1", now, now, nil, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE e.student_id = $1 ORDER BY e.created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("s1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE e.student_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	details, total, err := repo.ListByStudent(context.Background(), "s1", models.EnrollmentFilter{})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "GO-101", details[0].Course.Code)
	assert.Equal(t, "c1", details[0].Course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListRosterOrdersByEnrollmentTime(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"enrollment_id", "enrolled_at", "student_id", "user_id", "email", "first_name", "last_name"}).
		AddRow("e1", now.Add(-time.Hour), "s1", "u1", "a@example.com", "Ada", "Lovelace").
		AddRow("e2", now, "s2", "u2", "b@example.com", "Alan", "Turing")

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.created_at ASC")).
		WithArgs("c1").
		WillReturnRows(rows)

	roster, err := repo.ListRosterByCourse(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "e1", roster[0].EnrollmentID)
	assert.Equal(t, "a@example.com", roster[0].User.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
