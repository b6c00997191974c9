package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbcal/internal/calendar"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

func TestParseHHMM(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"-1:00", 0, true},
		{"0900", 0, true},
		{"nine:00", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseHHMM(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestByWeekdayDropsInvalidRules(t *testing.T) {
	rules := []model.WorkingHoursRule{
		{Weekday: 1, Start: "09:00", End: "17:00"},
		{Weekday: 2, Start: "bogus", End: "17:00"},
		{Weekday: 3, Start: "17:00", End: "09:00"}, // inverted
		{Weekday: 8, Start: "09:00", End: "17:00"}, // out of range
		{Weekday: 5, Start: "10:00", End: "10:00"}, // empty
	}

	got := ByWeekday(rules)
	require.Len(t, got, 1)
	assert.Equal(t, DaySchedule{StartMin: 540, EndMin: 1020}, got[1])
}

func TestByWeekdayLastRuleWins(t *testing.T) {
	rules := []model.WorkingHoursRule{
		{Weekday: 1, Start: "09:00", End: "17:00"},
		{Weekday: 1, Start: "10:00", End: "12:00"},
	}
	got := ByWeekday(rules)
	assert.Equal(t, DaySchedule{StartMin: 600, EndMin: 720}, got[1])
}

func TestViewIntervalsSameZone(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "America/New_York", "2025-01-06", "2025-01-06")
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "09:00", End: "17:00"}})

	got := ViewIntervalsForDays(svc, days, byWeekday, "America/New_York", "America/New_York", 8, 18)
	require.Len(t, got, 1)
	require.NotNil(t, got[0])
	assert.Equal(t, model.ViewWorkInterval{StartMin: 540, EndMin: 1020}, *got[0])
}

func TestViewIntervalsShiftedViewer(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "America/New_York", "2025-01-06", "2025-01-06")
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "09:00", End: "17:00"}})

	// 9-5 Eastern is 8-4 Central.
	got := ViewIntervalsForDays(svc, days, byWeekday, "America/New_York", "America/Chicago", 8, 18)
	require.NotNil(t, got[0])
	assert.Equal(t, model.ViewWorkInterval{StartMin: 480, EndMin: 960}, *got[0])
}

func TestViewIntervalsCrossViewerMidnight(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "Asia/Tokyo", "2025-01-06", "2025-01-06")
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "09:00", End: "17:00"}})

	// Tokyo 09:00 is 16:00 the previous day in Los Angeles; 17:00 lands
	// exactly at midnight, which pushes the end into the next viewer day.
	got := ViewIntervalsForDays(svc, days, byWeekday, "Asia/Tokyo", "America/Los_Angeles", 8, 18)
	require.NotNil(t, got[0])
	assert.Equal(t, model.ViewWorkInterval{StartMin: 960, EndMin: 1440}, *got[0])
}

func TestViewIntervalsNoRuleAndEmptySchedule(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-06", "2025-01-07")

	// Monday has a rule, Tuesday does not.
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "09:00", End: "17:00"}})
	got := ViewIntervalsForDays(svc, days, byWeekday, "Etc/UTC", "Etc/UTC", 8, 18)
	require.Len(t, got, 2)
	assert.NotNil(t, got[0])
	assert.Nil(t, got[1])

	// With no schedule at all, every day gets the default window.
	got = ViewIntervalsForDays(svc, days, map[int]DaySchedule{}, "Etc/UTC", "Etc/UTC", 8, 18)
	for _, iv := range got {
		require.NotNil(t, iv)
		assert.Equal(t, model.ViewWorkInterval{StartMin: 480, EndMin: 1080}, *iv)
	}
}

func TestHourBoundsExpandToSchedule(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "America/New_York", "2025-01-06", "2025-01-06")
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "07:30", End: "19:15"}})

	start, end := HourBounds(svc, days, byWeekday, "America/New_York", "America/New_York", 8, 18)
	assert.Equal(t, 7, start)
	assert.Equal(t, 20, end)
}

func TestHourBoundsDefaultsWhenNarrow(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "America/New_York", "2025-01-06", "2025-01-06")
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "10:00", End: "12:00"}})

	// The grid never shrinks below the default window.
	start, end := HourBounds(svc, days, byWeekday, "America/New_York", "America/New_York", 8, 18)
	assert.Equal(t, 8, start)
	assert.Equal(t, 18, end)
}

func TestHourBoundsClampedTo24(t *testing.T) {
	svc := timezone.NewService()
	days := calendar.EnumerateOwnerDays(svc, "Asia/Tokyo", "2025-01-06", "2025-01-06")
	byWeekday := ByWeekday([]model.WorkingHoursRule{{Weekday: 1, Start: "09:00", End: "17:00"}})

	// The Tokyo schedule maps to 16:00-24:00 in Los Angeles.
	start, end := HourBounds(svc, days, byWeekday, "Asia/Tokyo", "America/Los_Angeles", 8, 18)
	assert.Equal(t, 8, start)
	assert.Equal(t, 24, end)
}
