package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursedesk/coursedesk-api/internal/models"
)

const scheduleColumns = `id, course_id, day_of_week, start_time, end_time, room, created_at, updated_at`

// ScheduleRepository handles persistence of course schedule slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByID returns a schedule slot by identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE id = $1 LIMIT 1`, scheduleColumns)
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByCourse returns a course's slots in weekly calendar order. The
// (day_of_week, start_time) ascending ordering is a user-facing contract.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE course_id = $1 ORDER BY day_of_week ASC, start_time ASC`, scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, courseID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// Create persists a single schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	prepareSchedule(schedule)
	const query = `INSERT INTO schedules (id, course_id, day_of_week, start_time, end_time, room, created_at, updated_at)
        VALUES (:id, :course_id, :day_of_week, :start_time, :end_time, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update patches the provided fields of a schedule slot.
func (r *ScheduleRepository) Update(ctx context.Context, id string, patch models.SchedulePatch) (*models.Schedule, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if patch.DayOfWeek != nil {
		add("day_of_week", *patch.DayOfWeek)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.Room != nil {
		add("room", *patch.Room)
	}
	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`UPDATE schedules SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)+1, scheduleColumns)
	args = append(args, id)

	var updated models.Schedule
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a schedule slot.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts schedule slots using an existing transaction so
// course creation and schedule replacement stay atomic.
func (r *ScheduleRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	for i := range schedules {
		prepareSchedule(&schedules[i])
		const query = `INSERT INTO schedules (id, course_id, day_of_week, start_time, end_time, room, created_at, updated_at)
            VALUES (:id, :course_id, :day_of_week, :start_time, :end_time, :room, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, schedules[i]); err != nil {
			return fmt.Errorf("bulk create schedule: %w", err)
		}
	}
	return nil
}

// DeleteByCourseWithTx removes all slots of a course inside an existing
// transaction.
func (r *ScheduleRepository) DeleteByCourseWithTx(ctx context.Context, tx *sqlx.Tx, courseID string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete course schedules: %w", err)
	}
	return nil
}

func prepareSchedule(schedule *models.Schedule) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
}
