package schedule

import (
	"fmt"
	"time"

	"schedgrid/internal/model"
)

const minutesPerHour = 60

// MaxDayCount bounds the number of day columns of one view.
const MaxDayCount = 366

// DayScale returns the visible days of a view: dayCount consecutive midnights
// starting at the week anchor of current, minus any date whose weekday is
// excluded. Exclusions shrink the window, they never extend it.
func DayScale(current time.Time, first WeekStart, dayCount int, excluded ...time.Weekday) ([]time.Time, error) {
	if dayCount <= 0 {
		return nil, fmt.Errorf("%w: day count must be positive, got %d", ErrInvalidConfiguration, dayCount)
	}
	if dayCount > MaxDayCount {
		return nil, fmt.Errorf("%w: day count %d exceeds %d", ErrInvalidConfiguration, dayCount, MaxDayCount)
	}
	skip, err := newWeekdaySet(excluded)
	if err != nil {
		return nil, err
	}
	anchor, err := WeekAnchor(current, first)
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, 0, dayCount)
	for i := 0; i < dayCount; i++ {
		day := addDays(anchor, i)
		if skip.has(day.Weekday()) {
			continue
		}
		days = append(days, day)
	}
	return days, nil
}

// TimeScale returns the time-of-day rows of a view, materialized on the
// week anchor of current. Slots start every cellDuration minutes from
// startDayHour; the last one is cut to end a minute before endDayHour.
// startDayHour >= endDayHour yields no slots.
func TimeScale(current time.Time, first WeekStart, startDayHour, endDayHour, cellDuration int) ([]model.Slot, error) {
	rows, err := timeSpans(startDayHour, endDayHour, cellDuration)
	if err != nil {
		return nil, err
	}
	anchor, err := WeekAnchor(current, first)
	if err != nil {
		return nil, err
	}
	slots := make([]model.Slot, 0, len(rows))
	for _, r := range rows {
		slots = append(slots, r.on(anchor))
	}
	return slots, nil
}

// span is one time scale row in minutes after midnight. A cut row ends at
// the end of the visible hours and is closed a minute early.
type span struct {
	start, end int
	cut        bool
}

// on materializes the row on day. Offsets are applied to each day's own
// midnight, so a DST change on one day never leaks into another.
func (s span) on(day time.Time) model.Slot {
	slot := model.Slot{Start: atMinute(day, s.start)}
	if s.cut {
		slot.End = closeRangeEnd(atMinute(day, s.end), time.Minute)
	} else {
		slot.End = atMinute(day, s.end)
	}
	return slot
}

func timeSpans(startDayHour, endDayHour, cellDuration int) ([]span, error) {
	if cellDuration <= 0 {
		return nil, fmt.Errorf("%w: cell duration must be positive, got %d minutes", ErrInvalidConfiguration, cellDuration)
	}
	if err := checkHour("start day hour", startDayHour); err != nil {
		return nil, err
	}
	if err := checkHour("end day hour", endDayHour); err != nil {
		return nil, err
	}

	left := startDayHour * minutesPerHour
	boundary := endDayHour * minutesPerHour
	if left >= boundary {
		return []span{}, nil
	}

	// Any duration past the window yields the same single cut row.
	step := min(cellDuration, boundary-left)
	rows := make([]span, 0, (boundary-left+step-1)/step)
	for t := left; t < boundary; t += step {
		end := t + step
		if end >= boundary {
			rows = append(rows, span{start: t, end: boundary, cut: true})
			continue
		}
		rows = append(rows, span{start: t, end: end})
	}
	return rows, nil
}

func checkHour(name string, hour int) error {
	if hour < 0 || hour > 24 {
		return fmt.Errorf("%w: %s %d is outside 0-24", ErrInvalidConfiguration, name, hour)
	}
	return nil
}
