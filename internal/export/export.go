package export

import (
	"strings"
	"time"

	"fbcal/internal/model"
	"fbcal/internal/schedule"
	"fbcal/internal/timezone"
)

// Window is the owner-local date range the feed was asked for.
type Window struct {
	StartDate        string
	EndDateInclusive string
}

// Args is everything the export engine needs for one report.
type Args struct {
	Days       []model.OwnerDay
	Busy       []model.BusyInterval
	Weekly     []model.WorkingHoursRule
	OwnerZone  string
	ViewerZone string
	// Window may be nil when the feed did not supply one; the header range
	// line is then omitted.
	Window *Window
	// GeneratedAt, when non-nil, adds a machine-readable Generated line.
	GeneratedAt *model.Instant
}

const (
	fallbackStartHour = 8
	fallbackEndHour   = 18
)

// BuildText renders the plain-text availability report: one line per owner
// day listing the confidently-available ranges in the viewer zone, after
// busy intervals are subtracted from working hours and bounds are rounded
// to half-hour granularity.
//
// The rounding is deliberately asymmetric: working-hour bounds round inward
// (ceil start, floor end) while timed busy bounds round outward (floor
// start, ceil end), so a partially-busy half hour is never advertised as
// free.
func BuildText(svc *timezone.Service, a Args) string {
	viewerLoc := svc.Location(a.ViewerZone)
	ownerLoc := svc.Location(a.OwnerZone)
	tzAbbrev := zoneAbbrev(viewerLoc, a.ViewerZone)

	var lines []string

	header := "Availability (" + tzAbbrev + ")"
	if label, ok := windowRangeLabel(svc, a.Window, a.OwnerZone, ownerLoc); ok {
		header += " — " + label
	}
	lines = append(lines, header)
	lines = append(lines, "Times shown in "+tzAbbrev+" ("+a.ViewerZone+").")
	lines = append(lines, "")

	if a.GeneratedAt != nil {
		lines = append(lines, "Generated: "+a.GeneratedAt.Time().Format("2006-01-02T15:04:05.000Z"))
		lines = append(lines, "")
	}

	for _, day := range a.Days {
		dayLabel := day.Start.Time().In(ownerLoc).Format("Mon, Jan 2")

		working, ok := workingIntervalUTC(svc, day, a.Weekly, a.OwnerZone, a.ViewerZone)
		if !ok {
			lines = append(lines, dayLabel+": No availability")
			continue
		}

		// Inward rounding of the schedulable window.
		roundedWorking := Interval{
			Start: CeilToHalfHour(svc, working.Start, a.ViewerZone),
			End:   FloorToHalfHour(svc, working.End, a.ViewerZone),
		}
		if roundedWorking.End <= roundedWorking.Start {
			lines = append(lines, dayLabel+": No availability")
			continue
		}

		var blocks []Interval
		for _, b := range a.Busy {
			clipped, ok := Intersect(Interval{Start: b.Start, End: b.End}, Interval{Start: day.Start, End: day.End})
			if !ok {
				continue
			}

			var rounded Interval
			if b.Kind == model.BusyAllDay {
				// Blocks the entire rounded working window.
				rounded = roundedWorking
			} else {
				// Outward rounding: a partially-busy half hour is busy.
				rounded = Interval{
					Start: FloorToHalfHour(svc, clipped.Start, a.ViewerZone),
					End:   CeilToHalfHour(svc, clipped.End, a.ViewerZone),
				}
			}

			if withinWork, ok := Intersect(rounded, roundedWorking); ok {
				blocks = append(blocks, withinWork)
			}
		}

		available := Subtract(roundedWorking, blocks)
		if len(available) == 0 {
			lines = append(lines, dayLabel+": No availability")
			continue
		}

		ranges := make([]string, 0, len(available))
		for _, r := range available {
			ranges = append(ranges, formatRange(r, viewerLoc))
		}
		lines = append(lines, dayLabel+": "+strings.Join(ranges, "; "))
	}

	return strings.Join(lines, "\n")
}

// workingIntervalUTC resolves the day's working window as raw instants. With
// weekly rules present, a missing, unparsable, or inverted rule means no
// availability. With no rules at all the original fallback applies: 8am-6pm
// on the viewer-local date of the owner day's start.
func workingIntervalUTC(svc *timezone.Service, day model.OwnerDay, weekly []model.WorkingHoursRule, ownerZone, viewerZone string) (Interval, bool) {
	if len(weekly) > 0 {
		var rule *model.WorkingHoursRule
		for i := range weekly {
			if weekly[i].Weekday == day.Weekday {
				rule = &weekly[i]
				break
			}
		}
		if rule == nil {
			return Interval{}, false
		}

		ymd, err := time.Parse("2006-01-02", day.OwnerDate)
		if err != nil {
			return Interval{}, false
		}
		startMin, errS := schedule.ParseHHMM(rule.Start)
		endMin, errE := schedule.ParseHHMM(rule.End)
		if errS != nil || errE != nil {
			return Interval{}, false
		}

		start := svc.InstantFromCivil(timezone.CivilTime{
			Year: ymd.Year(), Month: int(ymd.Month()), Day: ymd.Day(),
			Hour: startMin / 60, Minute: startMin % 60,
		}, ownerZone)
		end := svc.InstantFromCivil(timezone.CivilTime{
			Year: ymd.Year(), Month: int(ymd.Month()), Day: ymd.Day(),
			Hour: endMin / 60, Minute: endMin % 60,
		}, ownerZone)
		if end <= start {
			return Interval{}, false
		}

		// Keep the schedule bounded to the owner day.
		return Intersect(Interval{Start: start, End: end}, Interval{Start: day.Start, End: day.End})
	}

	vc := svc.CivilTimeAt(day.Start, viewerZone)
	start := svc.InstantFromCivil(timezone.CivilTime{
		Year: vc.Year, Month: vc.Month, Day: vc.Day, Hour: fallbackStartHour,
	}, viewerZone)
	end := svc.InstantFromCivil(timezone.CivilTime{
		Year: vc.Year, Month: vc.Month, Day: vc.Day, Hour: fallbackEndHour,
	}, viewerZone)
	if end <= start {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

func windowRangeLabel(svc *timezone.Service, w *Window, ownerZone string, ownerLoc *time.Location) (string, bool) {
	if w == nil {
		return "", false
	}
	start, errS := time.Parse("2006-01-02", w.StartDate)
	end, errE := time.Parse("2006-01-02", w.EndDateInclusive)
	if errS != nil || errE != nil {
		return "", false
	}

	startInstant := svc.InstantFromCivil(timezone.CivilTime{
		Year: start.Year(), Month: int(start.Month()), Day: start.Day(),
	}, ownerZone)
	endInstant := svc.InstantFromCivil(timezone.CivilTime{
		Year: end.Year(), Month: int(end.Month()), Day: end.Day(),
	}, ownerZone)

	return startInstant.Time().In(ownerLoc).Format("Jan 2, 2006") +
		" to " +
		endInstant.Time().In(ownerLoc).Format("Jan 2, 2006"), true
}

// formatRange renders "9 AM - 10 AM" style labels, omitting minutes at :00.
func formatRange(r Interval, loc *time.Location) string {
	return formatClock(r.Start.Time().In(loc)) + " - " + formatClock(r.End.Time().In(loc))
}

func formatClock(t time.Time) string {
	if t.Minute() == 0 {
		return t.Format("3 PM")
	}
	return t.Format("3:04 PM")
}

// zoneAbbrev returns a short display abbreviation for the zone, falling
// back to the zone id when the abbreviation is numeric (e.g. "-07").
func zoneAbbrev(loc *time.Location, zone string) string {
	abbrev := time.Now().In(loc).Format("MST")
	if abbrev == "" || abbrev[0] == '-' || abbrev[0] == '+' {
		return zone
	}
	return abbrev
}

// SuggestedFileName derives the download filename from the window bounds and
// the viewer zone id.
func SuggestedFileName(w *Window, days []model.OwnerDay, viewerZone string) string {
	var start, end string
	if w != nil {
		start, end = w.StartDate, w.EndDateInclusive
	}
	if start == "" && len(days) > 0 {
		start = days[0].OwnerDate
	}
	if end == "" && len(days) > 0 {
		end = days[len(days)-1].OwnerDate
	}

	tzSafe := strings.ReplaceAll(viewerZone, "/", "-")
	if start == "" || end == "" {
		return "availability-availability-" + tzSafe + ".txt"
	}
	return "availability-" + start + "-to-" + end + "-" + tzSafe + ".txt"
}
