package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

func utc(y int, mo time.Month, d, h, m int) time.Time {
	return time.Date(y, mo, d, h, m, 0, 0, time.UTC)
}

func TestExpandSingleEvent(t *testing.T) {
	svc := timezone.NewService()
	events := []Event{{
		UID:   "one@test",
		Start: utc(2025, 1, 6, 14, 0),
		End:   utc(2025, 1, 6, 15, 0),
	}}

	got := ExpandBusy(svc, events, ExpandConfig{
		Zone:       "Etc/UTC",
		RangeStart: utc(2025, 1, 1, 0, 0),
		RangeEnd:   utc(2025, 1, 31, 0, 0),
	})

	require.Len(t, got, 1)
	assert.Equal(t, model.InstantOf(utc(2025, 1, 6, 14, 0)), got[0].Start)
	assert.Equal(t, model.InstantOf(utc(2025, 1, 6, 15, 0)), got[0].End)
	assert.Equal(t, model.BusyTimed, got[0].Kind)
}

func TestExpandOutOfRangeDropped(t *testing.T) {
	svc := timezone.NewService()
	events := []Event{{
		UID:   "past@test",
		Start: utc(2024, 6, 1, 14, 0),
		End:   utc(2024, 6, 1, 15, 0),
	}}

	got := ExpandBusy(svc, events, ExpandConfig{
		Zone:       "Etc/UTC",
		RangeStart: utc(2025, 1, 1, 0, 0),
		RangeEnd:   utc(2025, 1, 31, 0, 0),
	})
	assert.Empty(t, got)
}

func TestExpandWeeklyRecurrence(t *testing.T) {
	svc := timezone.NewService()
	events := []Event{{
		UID:     "rec@test",
		Start:   utc(2025, 1, 6, 14, 0), // Monday
		End:     utc(2025, 1, 6, 15, 0),
		RRule:   "FREQ=WEEKLY;BYDAY=MO",
		ExDates: []time.Time{utc(2025, 1, 20, 14, 0)},
	}}

	got := ExpandBusy(svc, events, ExpandConfig{
		Zone:       "Etc/UTC",
		RangeStart: utc(2025, 1, 1, 0, 0),
		RangeEnd:   utc(2025, 1, 31, 0, 0),
	})

	// Jan 6, 13, 27; Jan 20 removed by EXDATE.
	require.Len(t, got, 3)
	assert.Equal(t, model.InstantOf(utc(2025, 1, 6, 14, 0)), got[0].Start)
	assert.Equal(t, model.InstantOf(utc(2025, 1, 13, 14, 0)), got[1].Start)
	assert.Equal(t, model.InstantOf(utc(2025, 1, 27, 14, 0)), got[2].Start)
	for _, b := range got {
		assert.EqualValues(t, 60*60*1000, b.End-b.Start, "duration preserved")
	}
}

func TestExpandBadRRuleSkipsEvent(t *testing.T) {
	svc := timezone.NewService()
	events := []Event{{
		UID:   "bad@test",
		Start: utc(2025, 1, 6, 14, 0),
		End:   utc(2025, 1, 6, 15, 0),
		RRule: "FREQ=NEVERLY",
	}}

	got := ExpandBusy(svc, events, ExpandConfig{
		Zone:       "Etc/UTC",
		RangeStart: utc(2025, 1, 1, 0, 0),
		RangeEnd:   utc(2025, 1, 31, 0, 0),
	})
	assert.Empty(t, got)
}

func TestExpandAllDaySnapsToOwnerDay(t *testing.T) {
	svc := timezone.NewService()
	events := []Event{{
		UID:    "day@test",
		Start:  utc(2025, 1, 6, 0, 0),
		End:    utc(2025, 1, 7, 0, 0),
		AllDay: true,
	}}

	got := ExpandBusy(svc, events, ExpandConfig{
		Zone:       "America/New_York",
		RangeStart: utc(2025, 1, 1, 0, 0),
		RangeEnd:   utc(2025, 1, 31, 0, 0),
	})

	require.Len(t, got, 1)
	assert.Equal(t, model.BusyAllDay, got[0].Kind)
	// Midnight UTC is still Jan 5 in New York; the interval covers that
	// civil day's zone-correct bounds.
	assert.Equal(t, model.InstantOf(utc(2025, 1, 5, 5, 0)), got[0].Start)
	assert.Equal(t, model.InstantOf(utc(2025, 1, 6, 5, 0)), got[0].End)
}

func TestExpandInvertedRange(t *testing.T) {
	svc := timezone.NewService()
	events := []Event{{
		UID:   "one@test",
		Start: utc(2025, 1, 6, 14, 0),
		End:   utc(2025, 1, 6, 15, 0),
	}}

	got := ExpandBusy(svc, events, ExpandConfig{
		Zone:       "Etc/UTC",
		RangeStart: utc(2025, 2, 1, 0, 0),
		RangeEnd:   utc(2025, 1, 1, 0, 0),
	})
	assert.Nil(t, got)
}
