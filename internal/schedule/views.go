package schedule

import (
	"slices"
	"time"

	"schedgrid/internal/model"
)

// AvailableViewNames merges requested into the configured view names. A nil
// configured list yields just the requested name; a name already present
// leaves the list as is. The returned slice never shares storage with
// configured.
func AvailableViewNames(configured []string, requested string) []string {
	if configured == nil {
		return []string{requested}
	}
	names := slices.Clone(configured)
	if slices.Contains(names, requested) {
		return names
	}
	return append(names, requested)
}

// View is a fully computed scheduler view.
type View struct {
	Params ViewParams
	Days   []time.Time
	Slots  []model.Slot
	Cells  model.Grid
	Range  model.ViewRange
}

// Compute runs the whole engine for p. A layout that produces an empty grid
// (no visible hours or every day excluded) fails with ErrInvalidGrid.
func Compute(p ViewParams) (View, error) {
	days, rows, slots, err := scales(p)
	if err != nil {
		return View{}, err
	}
	cells := buildCells(days, rows)
	rng, err := ViewDateRange(cells)
	if err != nil {
		return View{}, err
	}
	return View{
		Params: p,
		Days:   days,
		Slots:  slots,
		Cells:  cells,
		Range:  rng,
	}, nil
}
