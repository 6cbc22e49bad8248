package attendance

import "errors"

// Attendance domain errors
var (
	ErrAlreadyClockedIn   = errors.New("already clocked in: an open shift exists for today")
	ErrNoOpenShift        = errors.New("no open shift found for today")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidTimeOfDay   = errors.New("invalid time of day")
	ErrInvalidDateRange   = errors.New("start date must not be after end date")
	ErrStaleShiftOpen     = errors.New("a stale open shift could not be closed")
)
