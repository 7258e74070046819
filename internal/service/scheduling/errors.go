package scheduling

import "errors"

var (
	ErrInvalidClock     = errors.New("time must be formatted as HH:MM")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
