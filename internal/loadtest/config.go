// Package loadtest drives a running gamefit server with generated prediction
// requests and checks every answer against the serving contract.
package loadtest

import (
	"time"

	"github.com/okian/gamefit/internal/domain/prediction"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	APIKey      string        // Value sent in X-Internal-Key
	NumRequests int           // Number of requests to generate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // Generator seed
	OutputFile  string        // Optional JSON dump of every outcome
	Verbose     bool          // Log every violation
}

// Kind tells what a generated request is meant to provoke.
type Kind string

// Request kinds.
const (
	KindValid   Kind = "valid"
	KindRepeat  Kind = "repeat"
	KindInvalid Kind = "invalid"
)

// Case is one generated request.
type Case struct {
	ID      string             `json:"id"`
	Kind    Kind               `json:"kind"`
	Of      int                `json:"of,omitempty"` // original index of a repeat
	Request prediction.Request `json:"request"`
}

// Outcome records how the server answered a Case.
type Outcome struct {
	Case     Case                `json:"case"`
	Status   int                 `json:"status"`
	Response prediction.Response `json:"response"`
	Latency  time.Duration       `json:"latency"`
	Err      string              `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Sent       int
	Succeeded  int
	Rejected   int
	Failed     int
	Violations int
	Verdicts   map[prediction.Verdict]int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
