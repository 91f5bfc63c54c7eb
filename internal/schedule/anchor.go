package schedule

import (
	"fmt"
	"time"
)

// WeekStart is an optional first day of the week. The zero value is unset:
// views anchored on an unset WeekStart begin on the current date itself.
type WeekStart struct {
	Day time.Weekday
	Set bool
}

// StartOn returns a WeekStart aligned to d.
func StartOn(d time.Weekday) WeekStart {
	return WeekStart{Day: d, Set: true}
}

func (w WeekStart) String() string {
	if !w.Set {
		return "none"
	}
	return w.Day.String()
}

// WeekAnchor returns day zero of a view: current truncated to midnight and,
// when first is set, moved back to the most recent date whose weekday is
// first.Day. DayScale and TimeScale both derive their dates from it.
func WeekAnchor(current time.Time, first WeekStart) (time.Time, error) {
	if current.IsZero() {
		return time.Time{}, fmt.Errorf("%w: current date is not set", ErrInvalidDate)
	}
	day := midnight(current)
	if !first.Set {
		return day, nil
	}
	if !validWeekday(first.Day) {
		return time.Time{}, fmt.Errorf("%w: first day of week %d is outside 0-6", ErrInvalidConfiguration, first.Day)
	}
	shift := (int(day.Weekday()) - int(first.Day) + 7) % 7
	return addDays(day, -shift), nil
}

// closeRangeEnd returns the inclusive instant one unit before an exclusive
// boundary.
func closeRangeEnd(boundary time.Time, unit time.Duration) time.Time {
	return boundary.Add(-unit)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// addDays moves by calendar days, so DST changes never shift the wall clock.
func addDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// atMinute returns day's midnight plus the given number of wall-clock minutes.
func atMinute(day time.Time, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, minutes, 0, 0, day.Location())
}

func validWeekday(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}

// weekdaySet is a bitmask of weekdays.
type weekdaySet uint8

func newWeekdaySet(days []time.Weekday) (weekdaySet, error) {
	var s weekdaySet
	for _, d := range days {
		if !validWeekday(d) {
			return 0, fmt.Errorf("%w: excluded weekday %d is outside 0-6", ErrInvalidConfiguration, d)
		}
		s |= 1 << uint(d)
	}
	return s, nil
}

func (s weekdaySet) has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}
