package calendar

import (
	"regexp"
	"strconv"
	"time"

	appLog "fbcal/internal/log"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

// maxEnumeratedDays bounds day enumeration so a malformed window can never
// loop forever. Exceeding the cap truncates silently.
const maxEnumeratedDays = 400

var ymdPattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})-([0-9]{2})$`)

type ymd struct {
	year, month, day int
}

func parseYmd(date string) (ymd, bool) {
	m := ymdPattern.FindStringSubmatch(date)
	if m == nil {
		return ymd{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return ymd{year: y, month: mo, day: d}, true
}

// addDaysYmd does calendar-date arithmetic on a YYYY-MM-DD string. The
// arithmetic is performed at UTC noon so it is immune to DST, which only
// exists at the instant level.
func addDaysYmd(date string, days int) string {
	p, ok := parseYmd(date)
	if !ok {
		return date
	}
	t := time.Date(p.year, time.Month(p.month), p.day+days, 12, 0, 0, 0, time.UTC)
	return t.Format("2006-01-02")
}

// EnumerateOwnerDays walks civil dates from startDate to endDateInclusive in
// the owner zone and returns one OwnerDay per date, ordered by date, each
// spanning that date's zone-correct midnight to the next. Days are marked
// InWindow=true. A malformed date ends the walk.
func EnumerateOwnerDays(svc timezone.ConversionService, zone, startDate, endDateInclusive string) []model.OwnerDay {
	days := make([]model.OwnerDay, 0)
	cursor := startDate

	for i := 0; i < maxEnumeratedDays; i++ {
		p, ok := parseYmd(cursor)
		if !ok {
			appLog.Debug("owner day enumeration stopped at malformed date", "date", cursor)
			break
		}

		start := svc.InstantFromCivil(timezone.CivilTime{
			Year: p.year, Month: p.month, Day: p.day,
		}, zone)
		next := addDaysYmd(cursor, 1)
		np, ok := parseYmd(next)
		if !ok {
			break
		}
		end := svc.InstantFromCivil(timezone.CivilTime{
			Year: np.year, Month: np.month, Day: np.day,
		}, zone)

		days = append(days, model.OwnerDay{
			OwnerDate: cursor,
			Weekday:   isoWeekdayOf(svc, start, zone),
			Start:     start,
			End:       end,
			InWindow:  true,
		})

		if cursor == endDateInclusive {
			break
		}
		cursor = next
	}

	return days
}

// isoWeekdayOf reads the instant's civil date in zone and returns its ISO
// weekday. Going through the civil date keeps the answer consistent with
// whatever ConversionService is injected.
func isoWeekdayOf(svc timezone.ConversionService, instant model.Instant, zone string) int {
	c := svc.CivilTimeAt(instant, zone)
	t := time.Date(c.Year, time.Month(c.Month), c.Day, 12, 0, 0, 0, time.UTC)
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// PadToWeekStart prepends out-of-window days so the first element's weekday
// equals weekStartDay (ISO). In-window days are passed through unchanged.
func PadToWeekStart(svc timezone.ConversionService, zone string, days []model.OwnerDay, weekStartDay int) []model.OwnerDay {
	if len(days) == 0 || weekStartDay < 1 || weekStartDay > 7 {
		return days
	}

	first := days[0]
	daysBack := (first.Weekday + 7 - weekStartDay) % 7
	if daysBack == 0 {
		return days
	}

	padStart := addDaysYmd(first.OwnerDate, -daysBack)
	padEnd := addDaysYmd(first.OwnerDate, -1)
	pad := EnumerateOwnerDays(svc, zone, padStart, padEnd)
	for i := range pad {
		pad[i].InWindow = false
	}

	return append(pad, days...)
}

// PadToWeekEnd appends out-of-window days so the last element's weekday is
// the one just before weekStartDay, completing the final displayed week.
func PadToWeekEnd(svc timezone.ConversionService, zone string, days []model.OwnerDay, weekStartDay int) []model.OwnerDay {
	if len(days) == 0 || weekStartDay < 1 || weekStartDay > 7 {
		return days
	}

	last := days[len(days)-1]
	daysForward := (weekStartDay - 1 - last.Weekday + 14) % 7
	if daysForward == 0 {
		return days
	}

	padStart := addDaysYmd(last.OwnerDate, 1)
	padEnd := addDaysYmd(last.OwnerDate, daysForward)
	pad := EnumerateOwnerDays(svc, zone, padStart, padEnd)
	for i := range pad {
		pad[i].InWindow = false
	}

	return append(days, pad...)
}

// ChunkIntoWeeks splits days into groups by cutting immediately before every
// day whose weekday equals weekStartDay (except the very first element). It
// never fabricates days; with a padded input every group has exactly 7.
func ChunkIntoWeeks(days []model.OwnerDay, weekStartDay int) [][]model.OwnerDay {
	weeks := make([][]model.OwnerDay, 0)
	var current []model.OwnerDay

	for _, day := range days {
		if len(current) > 0 && day.Weekday == weekStartDay {
			weeks = append(weeks, current)
			current = nil
		}
		current = append(current, day)
	}
	if len(current) > 0 {
		weeks = append(weeks, current)
	}
	return weeks
}
