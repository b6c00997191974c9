package model

// ViewZone is a viewer-selectable display timezone.
type ViewZone struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ViewZones is the fixed set of supported viewer timezones. The owner zone
// is not restricted to this list; only the viewer dropdown is.
var ViewZones = []ViewZone{
	{ID: "America/New_York", Label: "Eastern"},
	{ID: "America/Chicago", Label: "Central"},
	{ID: "America/Denver", Label: "Mountain"},
	{ID: "America/Los_Angeles", Label: "Pacific"},
	{ID: "America/Phoenix", Label: "Arizona"},
	{ID: "America/Anchorage", Label: "Alaska"},
	{ID: "Pacific/Honolulu", Label: "Hawaii"},
}

// IsSupportedViewZone reports whether id is one of the supported viewer zones.
func IsSupportedViewZone(id string) bool {
	for _, z := range ViewZones {
		if z.ID == id {
			return true
		}
	}
	return false
}

// LabelForViewZone returns the short label for a supported zone, or the id
// itself for anything else.
func LabelForViewZone(id string) string {
	for _, z := range ViewZones {
		if z.ID == id {
			return z.Label
		}
	}
	return id
}
