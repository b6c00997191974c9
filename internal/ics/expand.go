package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "fbcal/internal/log"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Zone is the owner timezone; all-day occurrences snap to that zone's
	// civil-day bounds.
	Zone string

	// RangeStart / RangeEnd bound the expansion window (inclusive).
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps expansion per event. Zero means the default.
	MaxOccurrences int
}

// ExpandBusy expands events into busy intervals within the configured range.
// Single events pass through, RRULE events are expanded with EXDATEs
// removed, and all-day events cover whole owner-zone civil days. Event
// identity is deliberately discarded; the grid only needs the ranges.
func ExpandBusy(svc *timezone.Service, events []Event, cfg ExpandConfig) []model.BusyInterval {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.BusyInterval, 0)
	for _, ev := range events {
		if ev.RRule == "" {
			if ev.End.Before(cfg.RangeStart) || ev.Start.After(cfg.RangeEnd) {
				continue
			}
			out = append(out, makeBusy(svc, cfg.Zone, ev, ev.Start, ev.End))
			continue
		}
		out = append(out, expandRecurring(svc, ev, cfg)...)
	}
	return out
}

func expandRecurring(svc *timezone.Service, ev Event, cfg ExpandConfig) []model.BusyInterval {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("rrule parse failed", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	occTimes := set.Between(
		cfg.RangeStart.In(ev.Start.Location()),
		cfg.RangeEnd.In(ev.Start.Location()),
		true,
	)
	if len(occTimes) > cfg.MaxOccurrences {
		appLog.Info("recurrence expansion truncated",
			"uid", ev.UID, "cap", cfg.MaxOccurrences)
		occTimes = occTimes[:cfg.MaxOccurrences]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]model.BusyInterval, 0, len(occTimes))
	for _, start := range occTimes {
		out = append(out, makeBusy(svc, cfg.Zone, ev, start, start.Add(dur)))
	}
	return out
}

// makeBusy converts one occurrence into a BusyInterval. All-day events are
// re-anchored to the owner zone's civil day containing the occurrence start,
// which keeps them 23h or 25h long across transition days.
func makeBusy(svc *timezone.Service, zone string, ev Event, start, end time.Time) model.BusyInterval {
	if ev.AllDay {
		ct := svc.CivilTimeAt(model.InstantOf(start), zone)
		dayStart := svc.InstantFromCivil(timezone.CivilTime{
			Year: ct.Year, Month: ct.Month, Day: ct.Day,
		}, zone)
		next := time.Date(ct.Year, time.Month(ct.Month), ct.Day+1, 12, 0, 0, 0, time.UTC)
		dayEnd := svc.InstantFromCivil(timezone.CivilTime{
			Year: next.Year(), Month: int(next.Month()), Day: next.Day(),
		}, zone)
		return model.BusyInterval{Start: dayStart, End: dayEnd, Kind: model.BusyAllDay}
	}
	return model.BusyInterval{
		Start: model.InstantOf(start),
		End:   model.InstantOf(end),
		Kind:  model.BusyTimed,
	}
}
