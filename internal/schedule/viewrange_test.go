package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"schedgrid/internal/model"
)

func rangeGrid() model.Grid {
	return model.Grid{
		{
			{StartDate: date(2018, time.June, 10), EndDate: date(2018, time.June, 11)},
			{StartDate: date(2018, time.June, 10), EndDate: date(2018, time.June, 11)},
		},
		{
			{StartDate: at(2018, time.June, 11, 10, 0, 0), EndDate: at(2018, time.June, 12, 10, 30, 0)},
			{StartDate: at(2018, time.June, 11, 10, 30, 0), EndDate: at(2018, time.June, 12, 11, 0, 0)},
		},
	}
}

func TestStartViewDate(t *testing.T) {
	start, err := StartViewDate(rangeGrid())
	require.NoError(t, err)
	require.Equal(t, date(2018, time.June, 10), start)
}

func TestEndViewDate(t *testing.T) {
	end, err := EndViewDate(rangeGrid())
	require.NoError(t, err)
	require.Equal(t, at(2018, time.June, 12, 10, 59, 59), end)
}

func TestEndViewDateUsesLatestEnd(t *testing.T) {
	grid := rangeGrid()
	grid[1][0], grid[1][1] = grid[1][1], grid[1][0]
	end, err := EndViewDate(grid)
	require.NoError(t, err)
	require.Equal(t, at(2018, time.June, 12, 10, 59, 59), end)
}

func TestViewDateRangeBoundsEveryCell(t *testing.T) {
	grid, err := ViewCellsData(ViewParams{
		CurrentDate:    date(2024, time.February, 27),
		FirstDayOfWeek: StartOn(time.Sunday),
		IntervalCount:  7,
		StartDayHour:   6,
		EndDayHour:     24,
		CellDuration:   30,
	})
	require.NoError(t, err)

	rng, err := ViewDateRange(grid)
	require.NoError(t, err)
	require.Equal(t, at(2024, time.February, 25, 6, 0, 0), rng.Start)
	require.Equal(t, at(2024, time.March, 2, 23, 58, 59), rng.End)
	for _, row := range grid {
		for _, cell := range row {
			require.False(t, cell.StartDate.Before(rng.Start))
			require.False(t, rng.End.Before(cell.EndDate.Add(-time.Second)))
			require.True(t, rng.Contains(cell.StartDate))
		}
	}
}

func TestViewDateRangeInvalidGrid(t *testing.T) {
	for name, grid := range map[string]model.Grid{
		"nil":       nil,
		"no rows":   {},
		"no cells":  {{}},
		"irregular": {{{}, {}}, {{}}},
	} {
		_, err := StartViewDate(grid)
		require.True(t, errors.Is(err, ErrInvalidGrid), name)
		_, err = EndViewDate(grid)
		require.True(t, errors.Is(err, ErrInvalidGrid), name)
		_, err = ViewDateRange(grid)
		require.True(t, errors.Is(err, ErrInvalidGrid), name)
	}
}

func TestCompute(t *testing.T) {
	view, err := Compute(ViewParams{
		CurrentDate:    date(2018, time.June, 24),
		FirstDayOfWeek: StartOn(time.Wednesday),
		IntervalCount:  7,
		ExcludedDays:   []time.Weekday{time.Sunday},
		StartDayHour:   9,
		EndDayHour:     17,
		CellDuration:   60,
	})
	require.NoError(t, err)
	require.Len(t, view.Days, 6)
	require.Len(t, view.Slots, 8)
	require.Equal(t, 8, view.Cells.Rows())
	require.Equal(t, 6, view.Cells.Columns())
	require.Equal(t, at(2018, time.June, 20, 9, 0, 0), view.Range.Start)
	require.Equal(t, at(2018, time.June, 26, 16, 58, 59), view.Range.End)

	_, err = Compute(ViewParams{
		CurrentDate:   date(2018, time.June, 24),
		IntervalCount: 7,
		StartDayHour:  9,
		EndDayHour:    9,
		CellDuration:  60,
	})
	require.True(t, errors.Is(err, ErrInvalidGrid))
}

func TestAvailableViewNames(t *testing.T) {
	require.Equal(t, []string{"Month"}, AvailableViewNames(nil, "Month"))
	require.Equal(t, []string{"Month"}, AvailableViewNames([]string{"Month"}, "Month"))
	require.Equal(t, []string{"Week", "Month"}, AvailableViewNames([]string{"Week"}, "Month"))
	require.Equal(t, []string{"Month"}, AvailableViewNames([]string{}, "Month"))
}

func TestAvailableViewNamesDoesNotAlias(t *testing.T) {
	configured := make([]string, 1, 4)
	configured[0] = "Week"
	names := AvailableViewNames(configured, "Month")
	names[0] = "Day"
	require.Equal(t, []string{"Week"}, configured)
	require.Equal(t, "", configured[:2][1])
}
