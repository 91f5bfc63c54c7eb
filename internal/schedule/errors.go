package schedule

import "errors"

// Errors reported by the grid engine. They are always wrapped with detail;
// test for them with errors.Is.
var (
	// ErrInvalidDate is returned for unparseable or zero current dates.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidConfiguration is returned for non-positive day counts or
	// cell durations, hours outside [0, 24] and weekdays outside 0-6.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidGrid is returned when a view range is requested for an empty
	// or non-rectangular grid.
	ErrInvalidGrid = errors.New("invalid grid")
)
