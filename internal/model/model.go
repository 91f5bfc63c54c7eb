package model

import "time"

// Slot is one time-of-day row of a view, materialized on the view's anchor
// day. Only its hour/minute components are meaningful to the grid; the date
// component is replaced per column when cells are built.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Cell is a single date-time cell of the grid.
type Cell struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Grid is a row-major matrix of cells: rows are time slots ordered by time,
// columns are visible days ordered by date.
type Grid [][]Cell

// Rows returns the number of time slots in the grid.
func (g Grid) Rows() int { return len(g) }

// Columns returns the number of days in the first row, or 0 for an empty grid.
func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// ViewRange is the first instant and the inclusive last instant spanned by
// a grid.
type ViewRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End].
func (r ViewRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Equal reports whether both bounds of r and o are the same instants.
func (r ViewRange) Equal(o ViewRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// Overlaps reports whether the half-open interval [start, end) intersects
// the range. A zero-length interval overlaps when the range contains start.
func (r ViewRange) Overlaps(start, end time.Time) bool {
	if !end.After(start) {
		return r.Contains(start)
	}
	return end.After(r.Start) && !start.After(r.End)
}

// Appointment represents a single concrete instance of a calendar event
// (after recurrence expansion and timezone normalization) that falls inside
// a view range.
type Appointment struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}
