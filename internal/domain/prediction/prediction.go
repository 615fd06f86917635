// Package prediction defines the serving contract and the policy that turns a
// calibrated probability into a confidence band and verdict.
package prediction

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Request bounds.
const (
	MinReleaseYear = 1980
	MaxReleaseYear = 2035
	MinTeamSize    = 1
	MaxTeamSize    = 500
)

// Cut points shared by confidence and verdict. Both comparisons are strict.
const (
	HighCut   = 0.70
	MediumCut = 0.45
)

// Confidence is the discretized certainty of a success estimate.
type Confidence string

// Confidence bands.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Verdict is the human-readable market-fit call.
type Verdict string

// Verdicts.
const (
	VerdictStrongFit Verdict = "Strong Market Fit"
	VerdictRisky     Verdict = "Risky but Possible"
	VerdictHighRisk  Verdict = "High Risk"
)

// ErrInvalidRequest reports a request outside the documented bounds.
var ErrInvalidRequest = errors.New("invalid prediction request")

// Request is the minimal game description accepted by the service.
type Request struct {
	Genre         string  `json:"genre"`
	Platform      string  `json:"platform"`
	Price         float64 `json:"price"`
	ReleaseYear   int     `json:"release_year"`
	IsMultiplayer bool    `json:"is_multiplayer"`
	TeamSize      int     `json:"team_size"`
}

// Validate checks the request against the documented bounds.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Genre) == "":
		return fmt.Errorf("missing genre: %w", ErrInvalidRequest)
	case strings.TrimSpace(r.Platform) == "":
		return fmt.Errorf("missing platform: %w", ErrInvalidRequest)
	case math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price < 0:
		return fmt.Errorf("price must be a non-negative number: %w", ErrInvalidRequest)
	case r.ReleaseYear < MinReleaseYear || r.ReleaseYear > MaxReleaseYear:
		return fmt.Errorf("release_year must be in [%d,%d]: %w", MinReleaseYear, MaxReleaseYear, ErrInvalidRequest)
	case r.TeamSize < MinTeamSize || r.TeamSize > MaxTeamSize:
		return fmt.Errorf("team_size must be in [%d,%d]: %w", MinTeamSize, MaxTeamSize, ErrInvalidRequest)
	}
	return nil
}

// Response is returned for every successful prediction. ModelVersion always
// names the artifact that produced the estimate.
type Response struct {
	ModelVersion       string     `json:"model_version"`
	SuccessProbability float64    `json:"success_probability"`
	Confidence         Confidence `json:"confidence"`
	Verdict            Verdict    `json:"verdict"`
}

// Classify maps a probability of success to its band and verdict.
func Classify(p float64) (Confidence, Verdict) {
	switch {
	case p > HighCut:
		return ConfidenceHigh, VerdictStrongFit
	case p > MediumCut:
		return ConfidenceMedium, VerdictRisky
	default:
		return ConfidenceLow, VerdictHighRisk
	}
}

// Percent converts a probability to a percentage rounded to two decimals,
// clamped to [0,100].
func Percent(p float64) float64 {
	v := math.Round(p*100*100) / 100
	return math.Min(100, math.Max(0, v))
}

// NewResponse builds the response for probability p.
func NewResponse(version string, p float64) Response {
	c, v := Classify(p)
	return Response{
		ModelVersion:       version,
		SuccessProbability: Percent(p),
		Confidence:         c,
		Verdict:            v,
	}
}
