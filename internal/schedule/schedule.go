package schedule

import (
	"errors"
	"strconv"
	"strings"

	appLog "fbcal/internal/log"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

const minutesPerDay = 24 * 60

// DaySchedule is one weekday's owner-local working window in minutes since
// owner-local midnight.
type DaySchedule struct {
	StartMin int
	EndMin   int
}

// ParseHHMM parses an "HH:mm" string into minutes since midnight.
func ParseHHMM(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, errors.New("expected HH:mm")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errors.New("time out of range")
	}
	return h*60 + m, nil
}

// ByWeekday parses weekly rules into a per-ISO-weekday schedule. Rules with
// unparsable times or an inverted window are dropped; that weekday then
// simply has no schedule. Duplicate weekdays keep the last rule.
func ByWeekday(rules []model.WorkingHoursRule) map[int]DaySchedule {
	out := make(map[int]DaySchedule)

	for _, r := range rules {
		startMin, err := ParseHHMM(r.Start)
		if err != nil {
			appLog.Debug("dropping working-hours rule with bad start", "weekday", r.Weekday, "start", r.Start)
			continue
		}
		endMin, err := ParseHHMM(r.End)
		if err != nil {
			appLog.Debug("dropping working-hours rule with bad end", "weekday", r.Weekday, "end", r.End)
			continue
		}
		if r.Weekday < 1 || r.Weekday > 7 || endMin <= startMin {
			appLog.Debug("dropping degenerate working-hours rule", "weekday", r.Weekday)
			continue
		}
		out[r.Weekday] = DaySchedule{StartMin: startMin, EndMin: endMin}
	}

	return out
}

// mapToViewerMinutes projects one day's owner-local schedule into viewer-local
// minutes of day. The owner-local start and end are materialized as instants
// for the concrete date (the viewer offset for a given owner clock time
// depends on the date), then read back as viewer civil times. When the end
// lands at or before the start on the viewer clock, the interval crossed
// viewer midnight and the end is pushed into the next viewer day.
func mapToViewerMinutes(svc timezone.ConversionService, day model.OwnerDay, ds DaySchedule, ownerZone, viewerZone string) *model.ViewWorkInterval {
	ymd, ok := splitOwnerDate(day.OwnerDate)
	if !ok {
		return nil
	}

	startInstant := svc.InstantFromCivil(timezone.CivilTime{
		Year: ymd[0], Month: ymd[1], Day: ymd[2],
		Hour: ds.StartMin / 60, Minute: ds.StartMin % 60,
	}, ownerZone)
	endInstant := svc.InstantFromCivil(timezone.CivilTime{
		Year: ymd[0], Month: ymd[1], Day: ymd[2],
		Hour: ds.EndMin / 60, Minute: ds.EndMin % 60,
	}, ownerZone)

	vs := svc.CivilTimeAt(startInstant, viewerZone)
	ve := svc.CivilTimeAt(endInstant, viewerZone)

	startMin := vs.Hour*60 + vs.Minute
	endMin := ve.Hour*60 + ve.Minute
	if endMin <= startMin {
		endMin += minutesPerDay
	}

	return &model.ViewWorkInterval{StartMin: startMin, EndMin: endMin}
}

func splitOwnerDate(date string) ([3]int, bool) {
	var out [3]int
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

// ViewIntervalsForDays returns one viewer-local working interval per owner
// day, index-aligned with days. With an empty schedule every day falls back
// to the default window; otherwise a day with no rule gets nil.
func ViewIntervalsForDays(svc timezone.ConversionService, days []model.OwnerDay, byWeekday map[int]DaySchedule, ownerZone, viewerZone string, defaultStartHour, defaultEndHour int) []*model.ViewWorkInterval {
	out := make([]*model.ViewWorkInterval, len(days))

	for i, day := range days {
		if len(byWeekday) == 0 {
			out[i] = &model.ViewWorkInterval{
				StartMin: defaultStartHour * 60,
				EndMin:   defaultEndHour * 60,
			}
			continue
		}
		ds, ok := byWeekday[day.Weekday]
		if !ok {
			continue
		}
		out[i] = mapToViewerMinutes(svc, day, ds, ownerZone, viewerZone)
	}

	return out
}

// HourBounds computes the rendered grid's hour range: the union of every
// visible day's viewer-mapped interval (floored/ceiled to whole hours),
// always containing the default window so the grid never shrinks below it.
func HourBounds(svc timezone.ConversionService, days []model.OwnerDay, byWeekday map[int]DaySchedule, ownerZone, viewerZone string, defaultStartHour, defaultEndHour int) (startHour, endHour int) {
	startHour, endHour = defaultStartHour, defaultEndHour

	intervals := ViewIntervalsForDays(svc, days, byWeekday, ownerZone, viewerZone, defaultStartHour, defaultEndHour)
	for _, iv := range intervals {
		if iv == nil {
			continue
		}
		if h := iv.StartMin / 60; h < startHour {
			startHour = h
		}
		if h := (iv.EndMin + 59) / 60; h > endHour {
			endHour = h
		}
	}

	if endHour > 24 {
		endHour = 24
	}
	// Guarded fallback; the floor/ceil above should make this unreachable.
	if endHour <= startHour {
		return defaultStartHour, defaultEndHour
	}
	return startHour, endHour
}
