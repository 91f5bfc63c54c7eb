package schedule

import (
	"time"

	"schedgrid/internal/model"
)

// ViewParams holds the layout of one scheduler view.
type ViewParams struct {
	// CurrentDate is the reference date; only its date component and
	// location matter.
	CurrentDate time.Time

	// FirstDayOfWeek aligns the view to a week. Unset keeps CurrentDate as
	// the first day.
	FirstDayOfWeek WeekStart

	// IntervalCount is the number of day columns before exclusion.
	IntervalCount int

	// ExcludedDays are weekdays removed from the visible window.
	ExcludedDays []time.Weekday

	// StartDayHour and EndDayHour bound the visible hours, 0-24.
	StartDayHour int
	EndDayHour   int

	// CellDuration is the length of one row, in minutes.
	CellDuration int
}

// ViewCellsData builds the grid of a view: one row per TimeScale slot, one
// column per DayScale day. Each cell takes its date from the column and its
// time of day from the row.
func ViewCellsData(p ViewParams) (model.Grid, error) {
	days, rows, _, err := scales(p)
	if err != nil {
		return nil, err
	}
	return buildCells(days, rows), nil
}

func scales(p ViewParams) ([]time.Time, []span, []model.Slot, error) {
	days, err := DayScale(p.CurrentDate, p.FirstDayOfWeek, p.IntervalCount, p.ExcludedDays...)
	if err != nil {
		return nil, nil, nil, err
	}
	rows, err := timeSpans(p.StartDayHour, p.EndDayHour, p.CellDuration)
	if err != nil {
		return nil, nil, nil, err
	}
	slots, err := TimeScale(p.CurrentDate, p.FirstDayOfWeek, p.StartDayHour, p.EndDayHour, p.CellDuration)
	if err != nil {
		return nil, nil, nil, err
	}
	return days, rows, slots, nil
}

func buildCells(days []time.Time, rows []span) model.Grid {
	grid := make(model.Grid, 0, len(rows))
	for _, r := range rows {
		row := make([]model.Cell, 0, len(days))
		for _, day := range days {
			slot := r.on(day)
			row = append(row, model.Cell{StartDate: slot.Start, EndDate: slot.End})
		}
		grid = append(grid, row)
	}
	return grid
}
