package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate signals a storage-level unique constraint violation. The
// constraints on courses.code and enrollments(student_id, course_id) are
// the authoritative guard against concurrent duplicate writes; service
// pre-checks are only an optimization.
var ErrDuplicate = errors.New("duplicate row")

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
