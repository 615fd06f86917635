package loadtest

import "time"

// HTTP constants.
const (
	StatusOK         = 200
	StatusBadRequest = 400
	APIKeyHeader     = "X-Internal-Key"
	RequestIDHeader  = "X-Request-ID"
)

// Generator mix: one in repeatEvery cases repeats an earlier request, one in
// invalidEvery breaks a bound.
const (
	repeatEvery  = 10
	invalidEvery = 25
)

// Runner configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
	progressInterval        = time.Second
)
