package grid

import (
	"fbcal/internal/model"
	"fbcal/internal/timezone"
)

const minutesPerDay = 24 * 60

// CellKind classifies one hour cell of the grid.
type CellKind int

const (
	// CellNone renders fully unavailable.
	CellNone CellKind = iota
	// CellFull renders fully available.
	CellFull
	// CellPartial renders an available sub-band described by TopPct/HeightPct.
	CellPartial
)

// CellAvailability is the classification of one hour-of-day cell. TopPct and
// HeightPct are percentages of the 60-minute cell and only meaningful for
// CellPartial.
type CellAvailability struct {
	Kind      CellKind
	TopPct    float64
	HeightPct float64
}

// HourSlots returns the contiguous hour labels [start, end).
func HourSlots(startHour, endHour int) []int {
	if endHour <= startHour {
		return nil
	}
	out := make([]int, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		out = append(out, h)
	}
	return out
}

// ClassifyHourCell compares the cell's [hour*60, hour*60+60) range against
// the day's viewer-local working interval. Out-of-window days and days with
// no interval are CellNone.
func ClassifyHourCell(inWindow bool, interval *model.ViewWorkInterval, hour int) CellAvailability {
	if !inWindow || interval == nil {
		return CellAvailability{Kind: CellNone}
	}

	cellStart := hour * 60
	cellEnd := cellStart + 60

	overlapStart := max(cellStart, interval.StartMin)
	overlapEnd := min(cellEnd, interval.EndMin)
	if overlapEnd <= overlapStart {
		return CellAvailability{Kind: CellNone}
	}
	if overlapStart == cellStart && overlapEnd == cellEnd {
		return CellAvailability{Kind: CellFull}
	}

	return CellAvailability{
		Kind:      CellPartial,
		TopPct:    float64(overlapStart-cellStart) / 60 * 100,
		HeightPct: float64(overlapEnd-overlapStart) / 60 * 100,
	}
}

// VisibleBusyInterval is a busy interval clipped for one owner-day column,
// with pixel geometry relative to the top of the rendered hour window.
type VisibleBusyInterval struct {
	model.BusyInterval
	VisibleStart model.Instant
	VisibleEnd   model.Instant
	TopPx        float64
	HeightPx     float64
}

// RenderBusyIntervalsForDay clips busy intervals to one owner day and
// computes their overlay geometry.
//
// The clip happens in two stages because two different zones answer two
// different questions: membership in the owner day is decided on UTC
// instants against the day's zone-correct bounds, while vertical placement
// is decided on viewer-local minutes against the rendered hour window. An
// all-day interval's visible range is exactly the day's working-grid
// bounds.
func RenderBusyIntervalsForDay(svc timezone.ConversionService, day model.OwnerDay, busy []model.BusyInterval, viewerZone string, workStartHour, workEndHour int, cellHeight float64) []VisibleBusyInterval {
	viewStartMin := float64(workStartHour * 60)
	viewEndMin := float64(workEndHour * 60)

	out := make([]VisibleBusyInterval, 0)
	for _, b := range busy {
		// Half-open overlap test against the owner day.
		if !(b.Start < day.End && b.End > day.Start) {
			continue
		}

		if b.Kind == model.BusyAllDay {
			out = append(out, VisibleBusyInterval{
				BusyInterval: b,
				VisibleStart: day.Start,
				VisibleEnd:   day.End,
				TopPx:        0,
				HeightPx:     (viewEndMin - viewStartMin) / 60 * cellHeight,
			})
			continue
		}

		clippedStart := max(b.Start, day.Start)
		clippedEnd := min(b.End, day.End)
		if clippedEnd <= clippedStart {
			continue
		}

		startMin := viewerMinuteOfDay(svc, clippedStart, viewerZone)
		endMin := viewerMinuteOfDay(svc, clippedEnd, viewerZone)
		if endMin <= startMin {
			// Clipped range crossed viewer midnight.
			endMin += minutesPerDay
		}

		visibleStartMin := max(startMin, viewStartMin)
		visibleEndMin := min(endMin, viewEndMin)
		if visibleEndMin <= visibleStartMin {
			continue
		}

		out = append(out, VisibleBusyInterval{
			BusyInterval: b,
			VisibleStart: clippedStart,
			VisibleEnd:   clippedEnd,
			TopPx:        (visibleStartMin - viewStartMin) / 60 * cellHeight,
			HeightPx:     (visibleEndMin - visibleStartMin) / 60 * cellHeight,
		})
	}

	return out
}

func viewerMinuteOfDay(svc timezone.ConversionService, instant model.Instant, viewerZone string) float64 {
	c := svc.CivilTimeAt(instant, viewerZone)
	return float64(c.Hour*60+c.Minute) + float64(c.Second)/60
}
