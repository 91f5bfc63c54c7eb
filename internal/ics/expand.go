package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
)

const defaultMaxPerEvent = 5000

// ExpandOptions controls recurrence expansion.
type ExpandOptions struct {
	// Range is the view window; only appointments overlapping it are kept.
	Range model.ViewRange

	// Location is the display timezone. Nil means time.Local.
	Location *time.Location

	// MaxPerEvent caps the instances produced by one recurring event.
	// Zero means 5000.
	MaxPerEvent int
}

// ExpandResult holds the appointments of a view and the UIDs whose
// expansion hit the cap.
type ExpandResult struct {
	Appointments []model.Appointment
	Truncated    []string
}

// Expand turns parsed events into the appointments overlapping opts.Range,
// applying RRULE, EXDATE and RECURRENCE-ID overrides. The result is sorted by
// start, then UID.
func Expand(events []Event, opts ExpandOptions) (ExpandResult, error) {
	var result ExpandResult
	if opts.Range.End.Before(opts.Range.Start) {
		return result, errors.New("expand: range ends before it starts")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxPerEvent <= 0 {
		opts.MaxPerEvent = defaultMaxPerEvent
	}

	base := make(map[string][]Event)
	overrides := make(map[string][]Event)
	var uids []string
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := base[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		base[ev.UID] = append(base[ev.UID], ev)
	}

	result.Appointments = make([]model.Appointment, 0)
	for _, uid := range uids {
		for _, ev := range base[uid] {
			appts, capped := expandEvent(ev, overrides[uid], opts)
			result.Appointments = append(result.Appointments, appts...)
			if capped {
				result.Truncated = append(result.Truncated, uid)
				appLog.Warn("expand: occurrences truncated", "uid", uid, "cap", opts.MaxPerEvent)
			}
		}
	}

	sort.SliceStable(result.Appointments, func(i, j int) bool {
		a, b := result.Appointments[i], result.Appointments[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.UID < b.UID
	})
	return result, nil
}

func expandEvent(ev Event, overrides []Event, opts ExpandOptions) ([]model.Appointment, bool) {
	if ev.RawRRule == "" {
		start, end, inst := applyOverride(ev, overrides, ev.Start, ev.End)
		if !opts.Range.Overlaps(start, end) {
			return nil, false
		}
		return []model.Appointment{makeAppointment(inst, start, end, opts.Location)}, false
	}

	ropt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	ropt.Dtstart = ev.Start
	rule, err := rrule.NewRRule(*ropt)
	if err != nil {
		appLog.Error("expand: invalid RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Instances starting up to one duration before the range still overlap it.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(opts.Range.Start.Add(-dur).In(loc), opts.Range.End.In(loc), true)

	capped := false
	if len(starts) > opts.MaxPerEvent {
		starts = starts[:opts.MaxPerEvent]
		capped = true
	}

	out := make([]model.Appointment, 0, len(starts))
	for _, s := range starts {
		start, end, inst := applyOverride(ev, overrides, s, s.Add(dur))
		if !opts.Range.Overlaps(start, end) {
			continue
		}
		out = append(out, makeAppointment(inst, start, end, opts.Location))
	}
	return out, capped
}

// applyOverride swaps in the override whose RECURRENCE-ID equals start.
func applyOverride(ev Event, overrides []Event, start, end time.Time) (time.Time, time.Time, Event) {
	for _, ov := range overrides {
		if ov.Recurrence.Equal(start) {
			return ov.Start, ov.End, ov
		}
	}
	return start, end, ev
}

func makeAppointment(ev Event, start, end time.Time, loc *time.Location) model.Appointment {
	if ev.AllDay {
		// All-day dates float: keep the calendar date, not the instant.
		start = floatingDate(start, loc)
		end = floatingDate(end, loc)
	} else {
		start = start.In(loc)
		end = end.In(loc)
	}
	return model.Appointment{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: start.Format(time.RFC3339Nano),
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	}
}

func floatingDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
