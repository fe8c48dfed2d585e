package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

func scheduleRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "course_id", "day_of_week", "start_time", "end_time", "room", "created_at", "updated_at"})
	for i, id := range ids {
		rows.AddRow(id, "c1", i, "09:00", "10:30", nil, time.Now(), time.Now())
	}
	return rows
}

func TestScheduleRepositoryListByCourseCalendarOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE course_id = $1 ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs("c1").
		WillReturnRows(scheduleRows("sch1", "sch2"))

	schedules, err := repo.ListByCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, schedules, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdatePatchesProvidedFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	start := "14:00"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE schedules SET start_time = $1, updated_at = $2 WHERE id = $3 RETURNING")).
		WithArgs(start, sqlmock.AnyArg(), "sch1").
		WillReturnRows(scheduleRows("sch1"))

	updated, err := repo.Update(context.Background(), "sch1", models.SchedulePatch{StartTime: &start})
	require.NoError(t, err)
	assert.Equal(t, "sch1", updated.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{CourseID: "c1", DayOfWeek: 4, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.Create(context.Background(), schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
