package service

import (
	"fmt"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
)

// ScheduleConflictError reports a tutor double-booking attempt and carries
// the competing class so callers can surface its time window.
type ScheduleConflictError struct {
	Conflicting *repo.Class
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("time conflict with class %q from %s to %s",
		e.Conflicting.Title,
		e.Conflicting.StartsAt.Format("2006-01-02T15:04:05Z07:00"),
		e.Conflicting.EndsAt().Format("2006-01-02T15:04:05Z07:00"),
	)
}

func (e *ScheduleConflictError) Unwrap() error {
	return errdefs.ErrScheduleConflict
}
