package timezone

import (
	"sync"
	"time"
	// Bundled tz database so conversions stay correct on hosts without
	// a system zoneinfo directory.
	_ "time/tzdata"

	appLog "fbcal/internal/log"
	"fbcal/internal/model"
)

// CivilTime is the wall-clock reading of an instant in some timezone.
// It is derived on demand and never cached across zone changes.
type CivilTime struct {
	Year   int
	Month  int // 1-12
	Day    int // 1-31
	Hour   int // 0-23
	Minute int
	Second int
}

// ConversionService converts between UTC instants and civil times in IANA
// timezones. It exists as an interface so the calendar core can be tested
// with a deterministic implementation.
type ConversionService interface {
	// CivilTimeAt returns the wall-clock reading of instant in zone.
	CivilTimeAt(instant model.Instant, zone string) CivilTime
	// InstantFromCivil constructs the instant whose wall-clock reading in
	// zone is civil. For a civil time inside a spring-forward gap the
	// result lands on whichever side the offset at the naive UTC
	// interpretation resolves to; no special detection is performed.
	InstantFromCivil(civil CivilTime, zone string) model.Instant
	// OffsetMinutes returns signed minutes such that local = UTC + offset.
	OffsetMinutes(instant model.Instant, zone string) int
}

// Service is the zoneinfo-backed ConversionService. Locations are cached
// per zone id; an unknown id degrades to UTC (upstream is expected to only
// hand us valid identifiers).
type Service struct {
	mu   sync.Mutex
	locs map[string]*time.Location
}

// NewService returns a ready-to-use conversion service.
func NewService() *Service {
	return &Service{locs: make(map[string]*time.Location)}
}

func (s *Service) location(zone string) *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loc, ok := s.locs[zone]; ok {
		return loc
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		appLog.Error("unknown timezone; falling back to UTC", err, "zone", zone)
		loc = time.UTC
	}
	s.locs[zone] = loc
	return loc
}

// CivilTimeAt implements ConversionService.
func (s *Service) CivilTimeAt(instant model.Instant, zone string) CivilTime {
	t := time.UnixMilli(int64(instant)).In(s.location(zone))
	return CivilTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// InstantFromCivil implements ConversionService.
//
// The civil fields are first interpreted as if they were UTC to obtain a
// trial instant; the zone's offset measured at that trial instant then
// corrects it. This is exact for ordinary civil times.
func (s *Service) InstantFromCivil(civil CivilTime, zone string) model.Instant {
	trial := time.Date(civil.Year, time.Month(civil.Month), civil.Day,
		civil.Hour, civil.Minute, civil.Second, 0, time.UTC)
	trialMs := trial.UnixMilli()
	offset := s.OffsetMinutes(model.Instant(trialMs), zone)
	return model.Instant(trialMs - int64(offset)*60_000)
}

// OffsetMinutes implements ConversionService.
func (s *Service) OffsetMinutes(instant model.Instant, zone string) int {
	t := time.UnixMilli(int64(instant)).In(s.location(zone))
	_, offsetSec := t.Zone()
	return offsetSec / 60
}

// IsoWeekday returns the ISO weekday (Monday=1 .. Sunday=7) of the instant's
// civil date in zone.
func (s *Service) IsoWeekday(instant model.Instant, zone string) int {
	t := time.UnixMilli(int64(instant)).In(s.location(zone))
	wd := int(t.Weekday()) // Sunday=0
	if wd == 0 {
		return 7
	}
	return wd
}

// SundayWeekday returns the Sunday-indexed weekday (Sunday=0 .. Saturday=6)
// of the instant's civil date in zone. Kept for display code that predates
// the ISO convention.
func (s *Service) SundayWeekday(instant model.Instant, zone string) int {
	t := time.UnixMilli(int64(instant)).In(s.location(zone))
	return int(t.Weekday())
}

// Location exposes the cached *time.Location for formatting helpers.
func (s *Service) Location(zone string) *time.Location {
	return s.location(zone)
}
