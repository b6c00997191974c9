package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbcal/internal/timezone"
)

const hourMs = 60 * 60 * 1000

func TestEnumerateOwnerDaysOrdinaryWeek(t *testing.T) {
	svc := timezone.NewService()

	days := EnumerateOwnerDays(svc, "America/New_York", "2025-01-06", "2025-01-12")
	require.Len(t, days, 7)

	assert.Equal(t, "2025-01-06", days[0].OwnerDate)
	assert.Equal(t, 1, days[0].Weekday)
	assert.Equal(t, "2025-01-12", days[6].OwnerDate)
	assert.Equal(t, 7, days[6].Weekday)

	for i, d := range days {
		assert.True(t, d.InWindow)
		assert.EqualValues(t, 24*hourMs, d.End-d.Start, "day %s", d.OwnerDate)
		if i > 0 {
			assert.Equal(t, days[i-1].End, d.Start, "days must be contiguous")
		}
	}
}

func TestEnumerateOwnerDaysDSTLengths(t *testing.T) {
	svc := timezone.NewService()

	spring := EnumerateOwnerDays(svc, "America/New_York", "2026-03-07", "2026-03-09")
	require.Len(t, spring, 3)
	assert.EqualValues(t, 24*hourMs, spring[0].End-spring[0].Start)
	assert.EqualValues(t, 23*hourMs, spring[1].End-spring[1].Start, "spring-forward day")
	assert.EqualValues(t, 24*hourMs, spring[2].End-spring[2].Start)

	fall := EnumerateOwnerDays(svc, "America/New_York", "2026-11-01", "2026-11-01")
	require.Len(t, fall, 1)
	assert.EqualValues(t, 25*hourMs, fall[0].End-fall[0].Start, "fall-back day")
}

func TestEnumerateOwnerDaysMalformedDates(t *testing.T) {
	svc := timezone.NewService()

	assert.Empty(t, EnumerateOwnerDays(svc, "Etc/UTC", "garbage", "2025-01-02"))
	assert.Empty(t, EnumerateOwnerDays(svc, "Etc/UTC", "2025-1-2", "2025-01-05"))
}

func TestEnumerateOwnerDaysCap(t *testing.T) {
	svc := timezone.NewService()

	// End before start never matches the cursor, so the walk truncates at
	// the cap instead of looping.
	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-02", "2025-01-01")
	assert.Len(t, days, maxEnumeratedDays)
}

func TestPadToWeekStart(t *testing.T) {
	svc := timezone.NewService()

	// 2025-01-01 is a Wednesday.
	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-01", "2025-01-05")
	padded := PadToWeekStart(svc, "Etc/UTC", days, 1)

	require.Len(t, padded, 7)
	assert.Equal(t, "2024-12-30", padded[0].OwnerDate)
	assert.Equal(t, 1, padded[0].Weekday)
	assert.False(t, padded[0].InWindow)
	assert.False(t, padded[1].InWindow)
	assert.True(t, padded[2].InWindow)
	assert.Equal(t, padded[1].End, padded[2].Start)
}

func TestPadToWeekStartAlreadyAligned(t *testing.T) {
	svc := timezone.NewService()

	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-06", "2025-01-08")
	padded := PadToWeekStart(svc, "Etc/UTC", days, 1)
	assert.Equal(t, days, padded)
}

func TestPadToWeekEnd(t *testing.T) {
	svc := timezone.NewService()

	// 2025-01-03 is a Friday; a Monday-start week needs Saturday and Sunday.
	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-01", "2025-01-03")
	padded := PadToWeekEnd(svc, "Etc/UTC", days, 1)

	require.Len(t, padded, 5)
	assert.Equal(t, "2025-01-05", padded[4].OwnerDate)
	assert.Equal(t, 7, padded[4].Weekday)
	assert.False(t, padded[3].InWindow)
	assert.False(t, padded[4].InWindow)
}

func TestPadSundayStartWeek(t *testing.T) {
	svc := timezone.NewService()

	// 2025-01-01 (Wed) with a Sunday-start week pads back to 2024-12-29.
	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-01", "2025-01-04")
	padded := PadToWeekStart(svc, "Etc/UTC", days, 7)
	require.NotEmpty(t, padded)
	assert.Equal(t, "2024-12-29", padded[0].OwnerDate)
	assert.Equal(t, 7, padded[0].Weekday)

	padded = PadToWeekEnd(svc, "Etc/UTC", padded, 7)
	assert.Equal(t, 6, padded[len(padded)-1].Weekday)
}

func TestChunkIntoWeeks(t *testing.T) {
	svc := timezone.NewService()

	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-01", "2025-01-10")
	padded := PadToWeekStart(svc, "Etc/UTC", days, 1)
	padded = PadToWeekEnd(svc, "Etc/UTC", padded, 1)

	weeks := ChunkIntoWeeks(padded, 1)
	require.Len(t, weeks, 2)
	for _, week := range weeks {
		require.Len(t, week, 7)
		assert.Equal(t, 1, week[0].Weekday)
		assert.Equal(t, 7, week[6].Weekday)
	}
}

func TestChunkIntoWeeksUnpadded(t *testing.T) {
	// Chunking never fabricates days; a partial leading run stays short.
	svc := timezone.NewService()

	days := EnumerateOwnerDays(svc, "Etc/UTC", "2025-01-04", "2025-01-08")
	weeks := ChunkIntoWeeks(days, 1)
	require.Len(t, weeks, 2)
	assert.Len(t, weeks[0], 2)
	assert.Len(t, weeks[1], 3)
}

func TestAddDaysYmd(t *testing.T) {
	assert.Equal(t, "2025-03-01", addDaysYmd("2025-02-28", 1))
	assert.Equal(t, "2024-02-29", addDaysYmd("2024-03-01", -1))
	assert.Equal(t, "2025-01-01", addDaysYmd("2024-12-31", 1))
	assert.Equal(t, "bogus", addDaysYmd("bogus", 3))
}
