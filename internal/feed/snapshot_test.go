package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbcal/internal/busy"
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

func sampleResponse() *Response {
	return &Response{
		Version:        "1",
		GeneratedAtUtc: "2025-12-29T12:34:56Z",
		Calendar:       CalendarContext{TimeZone: "America/New_York", WeekStartDay: 1},
		Window: Window{
			StartDate:        "2025-12-31", // Wednesday
			EndDateInclusive: "2026-01-06", // Tuesday
		},
		WorkingHours: WorkingHours{
			Weekly: []model.WorkingHoursRule{{Weekday: 1, Start: "09:00", End: "17:00"}},
		},
		Busy: []busy.RawInterval{
			{StartUtc: "2025-12-31T15:00:00Z", EndUtc: "2025-12-31T16:00:00Z", Kind: "time"},
			{StartUtc: "bad", EndUtc: "2025-12-31T16:00:00Z", Kind: "time"},
		},
	}
}

func TestBuildSnapshot(t *testing.T) {
	svc := timezone.NewService()
	snap := BuildSnapshot(svc, sampleResponse())

	assert.Equal(t, "1", snap.Version)
	assert.Equal(t, "America/New_York", snap.OwnerZone)
	assert.Equal(t, 1, snap.WeekStartDay)

	require.NotNil(t, snap.GeneratedAt)
	want, _ := time.Parse(time.RFC3339, "2025-12-29T12:34:56Z")
	assert.Equal(t, model.InstantOf(want), *snap.GeneratedAt)

	// In-window days only.
	require.Len(t, snap.Days, 7)
	assert.Equal(t, "2025-12-31", snap.Days[0].OwnerDate)
	for _, d := range snap.Days {
		assert.True(t, d.InWindow)
	}

	// Padded to whole Monday-start weeks.
	require.Len(t, snap.Weeks, 2)
	for _, week := range snap.Weeks {
		require.Len(t, week, 7)
		assert.Equal(t, 1, week[0].Weekday)
	}
	assert.Equal(t, "2025-12-29", snap.Weeks[0][0].OwnerDate)
	assert.False(t, snap.Weeks[0][0].InWindow)
	assert.Equal(t, "2026-01-11", snap.Weeks[1][6].OwnerDate)

	// Unparsable busy entries are dropped during normalization.
	require.Len(t, snap.Busy, 1)
	assert.Equal(t, model.BusyTimed, snap.Busy[0].Kind)

	require.Len(t, snap.Weekly, 1)
}

func TestBuildSnapshotDefaults(t *testing.T) {
	svc := timezone.NewService()
	resp := sampleResponse()
	resp.Calendar = CalendarContext{} // no zone, no week start
	resp.GeneratedAtUtc = ""

	snap := BuildSnapshot(svc, resp)
	assert.Equal(t, "Etc/UTC", snap.OwnerZone)
	assert.Nil(t, snap.GeneratedAt)
	assert.Equal(t, 0, snap.WeekStartDay)

	// Without a week start the grid gets one unpadded run.
	require.Len(t, snap.Weeks, 1)
	assert.Len(t, snap.Weeks[0], 7)
}

func TestBuildSnapshotEmptyWindow(t *testing.T) {
	svc := timezone.NewService()
	resp := sampleResponse()
	resp.Window = Window{StartDate: "nonsense", EndDateInclusive: "2026-01-06"}

	snap := BuildSnapshot(svc, resp)
	assert.Empty(t, snap.Days)
	assert.Empty(t, snap.Weeks)
}
