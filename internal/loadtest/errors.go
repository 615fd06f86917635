package loadtest

import "errors"

// Sentinel errors.
var (
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrNoModel      = errors.New("service has no model")
	ErrViolations   = errors.New("contract violations found")
	ErrInvalidSetup = errors.New("invalid load test config")
)
