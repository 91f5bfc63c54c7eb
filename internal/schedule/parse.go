package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses an ISO style date or date-time in loc (time.Local when
// nil). Strings carrying an explicit offset keep it.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts an English weekday name, its three letter
// abbreviation or an index 0-6 (0 = Sunday).
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if d, ok := weekdayNames[v]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || !validWeekday(time.Weekday(n)) {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfiguration, value)
	}
	return time.Weekday(n), nil
}

// ParseWeekdays parses a list of weekdays with ParseWeekday.
func ParseWeekdays(values []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(values))
	for _, v := range values {
		d, err := ParseWeekday(v)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// ParseWeekStart is ParseWeekday for an optional value: "" and "none" leave
// the week start unset.
func ParseWeekStart(value string) (WeekStart, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return WeekStart{}, nil
	}
	d, err := ParseWeekday(value)
	if err != nil {
		return WeekStart{}, err
	}
	return StartOn(d), nil
}
