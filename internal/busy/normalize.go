package busy

import (
	"time"

	appLog "fbcal/internal/log"
	"fbcal/internal/model"
)

// RawInterval is a busy entry as delivered by the free/busy feed.
type RawInterval struct {
	StartUtc string `json:"startUtc"`
	EndUtc   string `json:"endUtc"`
	Kind     string `json:"kind"` // "time" | "allDay"
}

// Normalize parses raw feed entries into canonical BusyIntervals. Entries
// whose instants fail to parse, or whose duration is zero or negative, are
// dropped. No merging or sorting happens here; clipping is done downstream
// per owner day because the same interval is clipped differently by the
// grid and by the export engine.
func Normalize(raw []RawInterval) []model.BusyInterval {
	out := make([]model.BusyInterval, 0, len(raw))

	for _, r := range raw {
		start, err := parseInstant(r.StartUtc)
		if err != nil {
			appLog.Debug("dropping busy interval with bad start", "start", r.StartUtc)
			continue
		}
		end, err := parseInstant(r.EndUtc)
		if err != nil {
			appLog.Debug("dropping busy interval with bad end", "end", r.EndUtc)
			continue
		}
		if end <= start {
			appLog.Debug("dropping non-positive busy interval", "start", r.StartUtc, "end", r.EndUtc)
			continue
		}

		kind := model.BusyTimed
		if r.Kind == "allDay" {
			kind = model.BusyAllDay
		}
		out = append(out, model.BusyInterval{Start: start, End: end, Kind: kind})
	}

	return out
}

func parseInstant(s string) (model.Instant, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return model.InstantOf(t), nil
}
