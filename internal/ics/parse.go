package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "schedgrid/internal/log"
)

// Event is a VEVENT before recurrence expansion.
type Event struct {
	Source Source

	UID string
	Seq int

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID of an overridden instance
}

// IsOverride reports whether the event replaces one instance of a
// recurring event.
func (e Event) IsOverride() bool {
	return e.Recurrence != nil
}

// ParseICS parses one ICS payload. Recurrences are recorded, not expanded.
// Malformed VEVENTs are logged and skipped.
func ParseICS(src Source, body []byte) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(src, ve)
		if err != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", err)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (Event, error) {
	ev := Event{Source: src}

	ev.UID = propValue(ve, ical.ComponentPropertyUniqueId)
	if ev.UID == "" {
		return ev, errors.New("missing UID")
	}
	if n, err := strconv.Atoi(strings.TrimSpace(propValue(ve, ical.ComponentPropertySequence))); err == nil {
		ev.Seq = n
	}
	ev.Summary = propValue(ve, ical.ComponentPropertySummary)
	ev.Description = propValue(ve, ical.ComponentPropertyDescription)
	ev.Location = propValue(ve, ical.ComponentPropertyLocation)

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, err
	}
	ev.Start = start
	ev.AllDay = isDateValue(ve.GetProperty(ical.ComponentPropertyDtStart))

	end, err := ve.GetEndAt()
	switch {
	case err == nil:
		ev.End = end
	case ev.AllDay:
		ev.End = start.AddDate(0, 0, 1)
	default:
		ev.End = start
	}

	ev.RawRRule = propValue(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, start.Location()); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if rid := propValue(ve, ical.ComponentProperty("RECURRENCE-ID")); rid != "" {
		if t, err := parseICSTime(rid, start.Location()); err == nil {
			ev.Recurrence = &t
		}
	}
	return ev, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// isDateValue reports VALUE=DATE or a bare YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if p == nil {
		return false
	}
	if vs := p.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime parses the DATE / DATE-TIME forms used by EXDATE and
// RECURRENCE-ID. Floating values are placed in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
