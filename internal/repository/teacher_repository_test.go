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

func TestTeacherRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "created_at"}).
		AddRow("t1", "u1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, created_at FROM teachers WHERE user_id = $1 LIMIT 1")).
		WithArgs("u1").
		WillReturnRows(rows)

	teacher, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateDuplicateUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Teacher{UserID: "u1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDeleteByUserIDReportsAffected(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.DeleteByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers WHERE user_id = $1")).
		WithArgs("u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err = repo.DeleteByUserID(context.Background(), "u2")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
