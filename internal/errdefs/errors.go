package errdefs

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrScheduleConflict  = errors.New("time conflict detected with another class")
	ErrRequestConflict   = errors.New("a request already exists for this time window")
	ErrRequestNotPending = errors.New("class request is no longer pending")
	ErrNotEnrolled       = errors.New("student is not enrolled in this course")
	ErrAlreadyJoined     = errors.New("student is already a participant of this class")
	ErrDeadlinePassed    = errors.New("submission deadline has passed")
	ErrUpstream          = errors.New("upstream failure")
)
