package feed

import (
	"fbcal/internal/busy"
	"fbcal/internal/model"
)

// CalendarContext identifies the owner calendar the feed describes.
type CalendarContext struct {
	TimeZone     string `json:"timeZone"`
	WeekStartDay int    `json:"weekStartDay"` // 1=Mon .. 7=Sun
}

// Window is the owner-local date range covered by the feed, with the
// matching UTC instant bounds.
type Window struct {
	StartDate        string `json:"startDate"`        // YYYY-MM-DD
	EndDateInclusive string `json:"endDateInclusive"` // YYYY-MM-DD
	StartUtc         string `json:"startUtc"`
	EndUtcExclusive  string `json:"endUtcExclusive"`
}

// WorkingHours carries the owner's weekly schedule, one rule per weekday.
type WorkingHours struct {
	Weekly []model.WorkingHoursRule `json:"weekly"`
}

// RateLimitScope describes one rate-limit bucket reported by the API.
type RateLimitScope struct {
	Remaining int    `json:"remaining"`
	ResetUtc  string `json:"resetUtc"`
	Limit     int    `json:"limit"`
	WindowMs  int64  `json:"windowMs"`
}

// RateLimitState is the API's view of when the client may call again.
type RateLimitState struct {
	NextAllowedAtUtc string                    `json:"nextAllowedAtUtc"`
	Scopes           map[string]RateLimitScope `json:"scopes"`
}

// Response is the free/busy feed document.
type Response struct {
	Version        string             `json:"version"`
	GeneratedAtUtc string             `json:"generatedAtUtc"`
	Calendar       CalendarContext    `json:"calendar"`
	Window         Window             `json:"window"`
	WorkingHours   WorkingHours       `json:"workingHours"`
	Busy           []busy.RawInterval `json:"busy"`
	RateLimit      *RateLimitState    `json:"rateLimit,omitempty"`
}
