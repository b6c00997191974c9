package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const rateLimitBody = `{
	"error": "rate_limited",
	"rateLimit": {
		"nextAllowedAtUtc": "2025-12-29T12:05:00Z",
		"scopes": {
			"minute": {"remaining": 0, "resetUtc": "2025-12-29T12:05:00Z", "limit": 10, "windowMs": 60000}
		}
	}
}`

func TestInterpretOk(t *testing.T) {
	got := Interpret(200, []byte(`{"version":"1"}`))
	assert.Equal(t, ResultOk, got.Kind)
	assert.Empty(t, got.Message)
}

func TestInterpretDisabled(t *testing.T) {
	got := Interpret(503, []byte(`{"error":"disabled"}`))
	assert.Equal(t, ResultDisabled, got.Kind)
	assert.Equal(t, DisabledMessage, got.Message)

	// A 503 without the explicit marker is a plain outage.
	got = Interpret(503, []byte(`{"error":"maintenance"}`))
	assert.Equal(t, ResultUnavailable, got.Kind)

	got = Interpret(503, nil)
	assert.Equal(t, ResultUnavailable, got.Kind)
}

func TestInterpretRateLimited(t *testing.T) {
	got := Interpret(429, []byte(rateLimitBody))
	assert.Equal(t, ResultRateLimited, got.Kind)
	assert.Equal(t, RateLimitedMessage, got.Message)
	if assert.NotNil(t, got.RateLimit) {
		assert.Equal(t, "2025-12-29T12:05:00Z", got.RateLimit.NextAllowedAtUtc)
	}

	// The explicit error marker works on any status.
	got = Interpret(400, []byte(rateLimitBody))
	assert.Equal(t, ResultRateLimited, got.Kind)
}

func TestInterpretRateLimitedNeedsPayload(t *testing.T) {
	// A 429 without a usable rateLimit payload cannot drive backoff.
	got := Interpret(429, []byte(`{"error":"rate_limited"}`))
	assert.Equal(t, ResultUnavailable, got.Kind)

	got = Interpret(429, []byte(`{"error":"rate_limited","rateLimit":{"nextAllowedAtUtc":"2025-12-29T12:05:00Z"}}`))
	assert.Equal(t, ResultUnavailable, got.Kind, "missing scopes")
}

func TestInterpretOtherErrors(t *testing.T) {
	assert.Equal(t, ResultUnavailable, Interpret(500, nil).Kind)
	assert.Equal(t, ResultUnavailable, Interpret(404, []byte("not found")).Kind)
	assert.Equal(t, ResultUnavailable, Interpret(302, nil).Kind)
	// A non-JSON body never panics the probe.
	assert.Equal(t, ResultUnavailable, Interpret(500, []byte("<html>oops</html>")).Kind)
}
