package schedule

import (
	"fmt"
	"time"

	"schedgrid/internal/model"
)

// StartViewDate returns the start of the first cell of the grid.
func StartViewDate(grid model.Grid) (time.Time, error) {
	if err := checkGrid(grid); err != nil {
		return time.Time{}, err
	}
	return grid[0][0].StartDate, nil
}

// EndViewDate returns the latest end of the grid's last row, one second
// earlier, so that [start, end] checks never reach into the following slot.
func EndViewDate(grid model.Grid) (time.Time, error) {
	if err := checkGrid(grid); err != nil {
		return time.Time{}, err
	}
	last := grid[len(grid)-1]
	maxEnd := last[0].EndDate
	for _, cell := range last[1:] {
		if cell.EndDate.After(maxEnd) {
			maxEnd = cell.EndDate
		}
	}
	return closeRangeEnd(maxEnd, time.Second), nil
}

// ViewDateRange returns StartViewDate and EndViewDate together.
func ViewDateRange(grid model.Grid) (model.ViewRange, error) {
	start, err := StartViewDate(grid)
	if err != nil {
		return model.ViewRange{}, err
	}
	end, err := EndViewDate(grid)
	if err != nil {
		return model.ViewRange{}, err
	}
	return model.ViewRange{Start: start, End: end}, nil
}

func checkGrid(grid model.Grid) error {
	if len(grid) == 0 {
		return fmt.Errorf("%w: grid has no rows", ErrInvalidGrid)
	}
	width := len(grid[0])
	if width == 0 {
		return fmt.Errorf("%w: grid has no columns", ErrInvalidGrid)
	}
	for i, row := range grid {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidGrid, i, len(row), width)
		}
	}
	return nil
}
