package feed

import "encoding/json"

// User-facing status messages, matching the availability UI copy.
const (
	DisabledMessage    = "Free/busy time is not being shared right now."
	UnavailableMessage = "There was a problem getting availability. Please try again later."
	RateLimitedMessage = "Rate limited. Please wait before refreshing."
)

// ResultKind classifies the outcome of one feed fetch.
type ResultKind int

const (
	ResultOk ResultKind = iota
	ResultDisabled
	ResultRateLimited
	ResultUnavailable
)

func (k ResultKind) String() string {
	switch k {
	case ResultOk:
		return "ok"
	case ResultDisabled:
		return "disabled"
	case ResultRateLimited:
		return "rate_limited"
	default:
		return "unavailable"
	}
}

// Result is the interpreted outcome of an HTTP exchange with the feed.
// RateLimit is set only for ResultRateLimited.
type Result struct {
	Kind      ResultKind
	Message   string
	RateLimit *RateLimitState
}

// errorProbe is the minimal shape needed to classify an error body.
type errorProbe struct {
	Error     string          `json:"error"`
	RateLimit *RateLimitState `json:"rateLimit"`
}

// Interpret classifies a feed HTTP response. A 503 with error "disabled"
// means sharing is intentionally off; 429 (or an explicit rate_limited
// error) with a well-formed rateLimit payload is a backoff signal; every
// other non-2xx outcome is a generic unavailability.
func Interpret(status int, body []byte) Result {
	var probe errorProbe
	if len(body) > 0 {
		// A body that is not JSON is treated the same as no body.
		_ = json.Unmarshal(body, &probe)
	}

	if status == 503 {
		if probe.Error == "disabled" {
			return Result{Kind: ResultDisabled, Message: DisabledMessage}
		}
		return Result{Kind: ResultUnavailable, Message: UnavailableMessage}
	}

	if status == 429 || probe.Error == "rate_limited" {
		if probe.RateLimit != nil && probe.RateLimit.NextAllowedAtUtc != "" && probe.RateLimit.Scopes != nil {
			return Result{Kind: ResultRateLimited, Message: RateLimitedMessage, RateLimit: probe.RateLimit}
		}
		return Result{Kind: ResultUnavailable, Message: UnavailableMessage}
	}

	if status < 200 || status > 299 {
		return Result{Kind: ResultUnavailable, Message: UnavailableMessage}
	}

	return Result{Kind: ResultOk}
}
