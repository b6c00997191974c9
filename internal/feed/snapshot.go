package feed

import (
	"time"

	"fbcal/internal/busy"
	"fbcal/internal/calendar"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

// Snapshot is the fully derived model for one feed document. It is built
// pure from a single Response and replaced wholesale on every refresh;
// nothing is updated incrementally.
type Snapshot struct {
	Version     string
	GeneratedAt *model.Instant
	OwnerZone   string
	// WeekStartDay is the ISO weekday the rendered weeks begin on, 0 when
	// the feed did not supply one (the grid then shows a single run).
	WeekStartDay int
	Window       *Window

	// Days are the in-window owner days, ordered by date. The export
	// engine consumes these.
	Days []model.OwnerDay
	// Weeks are the padded, week-aligned 7-day groups the grid consumes.
	Weeks [][]model.OwnerDay

	Busy   []model.BusyInterval
	Weekly []model.WorkingHoursRule
}

// BuildSnapshot derives a Snapshot from a feed response.
func BuildSnapshot(svc *timezone.Service, resp *Response) *Snapshot {
	ownerZone := resp.Calendar.TimeZone
	if ownerZone == "" {
		ownerZone = "Etc/UTC"
	}

	days := calendar.EnumerateOwnerDays(svc, ownerZone, resp.Window.StartDate, resp.Window.EndDateInclusive)

	weekStart := resp.Calendar.WeekStartDay
	var weeks [][]model.OwnerDay
	if weekStart >= 1 && weekStart <= 7 && len(days) > 0 {
		padded := calendar.PadToWeekStart(svc, ownerZone, days, weekStart)
		padded = calendar.PadToWeekEnd(svc, ownerZone, padded, weekStart)
		weeks = calendar.ChunkIntoWeeks(padded, weekStart)
	} else if len(days) > 0 {
		weeks = [][]model.OwnerDay{days}
	}

	snap := &Snapshot{
		Version:      resp.Version,
		OwnerZone:    ownerZone,
		WeekStartDay: weekStart,
		Window:       &resp.Window,
		Days:         days,
		Weeks:        weeks,
		Busy:         busy.Normalize(resp.Busy),
		Weekly:       resp.WorkingHours.Weekly,
	}

	if resp.GeneratedAtUtc != "" {
		if t, err := time.Parse(time.RFC3339, resp.GeneratedAtUtc); err == nil {
			gen := model.InstantOf(t)
			snap.GeneratedAt = &gen
		}
	}

	return snap
}
