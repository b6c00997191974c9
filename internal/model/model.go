package model

import "time"

// Instant is an absolute point in time, canonically represented as integer
// milliseconds since the Unix epoch in UTC. Civil (wall-clock) readings are
// always derived from an Instant plus a timezone, never stored.
type Instant int64

// InstantOf converts a time.Time into an Instant.
func InstantOf(t time.Time) Instant {
	return Instant(t.UnixMilli())
}

// Time returns the instant as a time.Time in UTC.
func (i Instant) Time() time.Time {
	return time.UnixMilli(int64(i)).UTC()
}

// BusyKind distinguishes concrete time ranges from whole-day markers.
type BusyKind int

const (
	// BusyTimed is a concrete UTC time range.
	BusyTimed BusyKind = iota
	// BusyAllDay marks "the whole owner day is blocked". Its instants come
	// from the feed and may stop just short of midnight; wherever day
	// semantics matter the interval is resolved to the owner day's bounds.
	BusyAllDay
)

// BusyInterval is a canonical, zone-agnostic busy range. Invariant:
// End > Start; entries violating this are dropped at normalization.
type BusyInterval struct {
	Start Instant
	End   Instant
	Kind  BusyKind
}

// OwnerDay is one midnight-to-midnight civil day in the schedule owner's
// timezone. End-Start is 24h on ordinary days, 23h on spring-forward days
// and 25h on fall-back days.
type OwnerDay struct {
	// OwnerDate is the civil date in the owner zone, "YYYY-MM-DD".
	OwnerDate string
	// Weekday is the ISO weekday of the date, Monday=1 .. Sunday=7.
	Weekday int
	Start   Instant
	End     Instant
	// InWindow is false for days synthesized purely to pad a rendered week.
	// They carry real instants but lie outside the requested window.
	InWindow bool
}

// WorkingHoursRule is one owner-local weekly schedule entry. At most one
// rule per ISO weekday; a weekday with no rule has no working hours.
type WorkingHoursRule struct {
	Weekday int    `json:"dayOfWeek"`
	Start   string `json:"start"` // "HH:mm", owner-local
	End     string `json:"end"`   // "HH:mm", owner-local
}

// ViewWorkInterval is a working interval for one owner day expressed in
// minutes since viewer-local midnight. EndMin may exceed 1440 when the
// mapped interval crosses viewer midnight. A nil *ViewWorkInterval means
// no working hours that day.
type ViewWorkInterval struct {
	StartMin int
	EndMin   int
}
