package export

import (
	"sort"
	"time"

	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

// Interval is a half-open [Start, End) instant range.
type Interval struct {
	Start model.Instant
	End   model.Instant
}

// Intersect returns the overlap of a and b, or false when they are disjoint
// or merely adjacent.
func Intersect(a, b Interval) (Interval, bool) {
	start := max(a.Start, b.Start)
	end := min(a.End, b.End)
	if end <= start {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Merge sorts intervals by start and coalesces overlapping or adjacent ones.
// The input is not modified.
func Merge(intervals []Interval) []Interval {
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]Interval, 0, len(sorted))
	for _, it := range sorted {
		if len(out) == 0 || it.Start > out[len(out)-1].End {
			out = append(out, it)
			continue
		}
		last := &out[len(out)-1]
		if it.End > last.End {
			last.End = it.End
		}
	}
	return out
}

// Subtract removes blocks from base, returning the open gaps between and
// around the merged blocks, walked left to right.
func Subtract(base Interval, blocks []Interval) []Interval {
	merged := Merge(blocks)
	out := make([]Interval, 0)

	cursor := base.Start
	for _, b := range merged {
		if b.End <= cursor {
			continue
		}
		if b.Start > cursor {
			end := min(b.Start, base.End)
			if end > cursor {
				out = append(out, Interval{Start: cursor, End: end})
			}
		}
		cursor = max(cursor, b.End)
		if cursor >= base.End {
			break
		}
	}
	if cursor < base.End {
		out = append(out, Interval{Start: cursor, End: base.End})
	}

	return out
}

// FloorToHalfHour rounds the instant down to the nearest :00/:30 boundary on
// the viewer's wall clock. The rounding reads the viewer-local civil time,
// rounds the minute of day, and reconstructs the instant through the zone;
// naive millisecond truncation would drift across a DST boundary.
func FloorToHalfHour(svc timezone.ConversionService, instant model.Instant, viewerZone string) model.Instant {
	c := svc.CivilTimeAt(instant, viewerZone)
	totalMin := c.Hour*60 + c.Minute
	rounded := totalMin / 30 * 30
	return rebuildAtMinute(svc, c, rounded, viewerZone)
}

// CeilToHalfHour rounds the instant up to the nearest :00/:30 boundary on
// the viewer's wall clock. Stray seconds bump the minute first so a reading
// like 09:30:05 still ceils to 10:00.
func CeilToHalfHour(svc timezone.ConversionService, instant model.Instant, viewerZone string) model.Instant {
	c := svc.CivilTimeAt(instant, viewerZone)
	totalMin := c.Hour*60 + c.Minute
	if c.Second > 0 {
		totalMin++
	}
	rounded := (totalMin + 29) / 30 * 30
	return rebuildAtMinute(svc, c, rounded, viewerZone)
}

// rebuildAtMinute reconstructs an instant at the rounded minute of day,
// carrying into an adjacent civil day when the rounding crossed midnight.
func rebuildAtMinute(svc timezone.ConversionService, c timezone.CivilTime, minuteOfDay int, viewerZone string) model.Instant {
	dayOffset := 0
	for minuteOfDay >= 24*60 {
		minuteOfDay -= 24 * 60
		dayOffset++
	}
	for minuteOfDay < 0 {
		minuteOfDay += 24 * 60
		dayOffset--
	}

	d := time.Date(c.Year, time.Month(c.Month), c.Day+dayOffset, 12, 0, 0, 0, time.UTC)
	return svc.InstantFromCivil(timezone.CivilTime{
		Year:   d.Year(),
		Month:  int(d.Month()),
		Day:    d.Day(),
		Hour:   minuteOfDay / 60,
		Minute: minuteOfDay % 60,
	}, viewerZone)
}
