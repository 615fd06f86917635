// Package features derives the classifier inputs from scored records, and
// rebuilds them from a minimal prediction request at inference time.
package features

import (
	"math"
	"strings"

	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/stats"
)

// DefaultReferenceYear is the "current year" release recency is measured from.
const DefaultReferenceYear = 2024

const multiplayerMarker = "multiplayer"

// Options control the transform.
type Options struct {
	ReferenceYear int
}

// Engineer derives model features for every scored record. It is
// deterministic and does not modify its input.
func Engineer(records []model.ScoredRecord, opts Options) []model.EngineeredRecord {
	ref := opts.ReferenceYear
	if ref == 0 {
		ref = DefaultReferenceYear
	}

	share := MarketShare(records)
	fallbackYear := medianYear(records, ref)

	out := make([]model.EngineeredRecord, len(records))
	for i, r := range records {
		year := fallbackYear
		if r.ReleaseYear != nil {
			year = float64(*r.ReleaseYear)
		}
		out[i] = model.EngineeredRecord{
			ScoredRecord:      r,
			YearsSinceRelease: YearsSince(ref, year),
			GenreMarketShare:  share[r.Genre],
			ContentScope:      ContentScope(r.Price, r.Playtime),
			TeamSize:          TeamSize(r.Developers),
			IsMultiplayer:     boolToInt(IsMultiplayer(r.Categories)),
		}
	}
	return out
}

// MarketShare returns each genre's share of the dataset.
func MarketShare(records []model.ScoredRecord) map[string]float64 {
	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Genre]++
	}
	out := make(map[string]float64, len(counts))
	for g, c := range counts {
		out[g] = float64(c) / float64(len(records))
	}
	return out
}

// YearsSince returns ref-year clipped at zero.
func YearsSince(ref int, year float64) float64 {
	return math.Max(0, float64(ref)-year)
}

// ContentScope is a content-size proxy from price and average playtime.
func ContentScope(price, playtime float64) float64 {
	return 0.5*math.Log1p(price) + 0.5*math.Log1p(playtime+1)
}

// TeamSize counts comma-separated developer names, with a floor of one.
func TeamSize(developers string) int {
	n := 0
	for _, d := range strings.Split(developers, ",") {
		if strings.TrimSpace(d) != "" {
			n++
		}
	}
	return max(n, 1)
}

// IsMultiplayer reports whether the category tags contain "multiplayer",
// ignoring case. "Multi-player" does not match.
func IsMultiplayer(categories string) bool {
	return strings.Contains(strings.ToLower(categories), multiplayerMarker)
}

// medianYear imputes unknown release years. With no known year at all the
// record is treated as released in the reference year.
func medianYear(records []model.ScoredRecord, ref int) float64 {
	years := make([]float64, 0, len(records))
	for i := range records {
		if y := records[i].ReleaseYear; y != nil {
			years = append(years, float64(*y))
		}
	}
	if len(years) == 0 {
		return float64(ref)
	}
	return stats.Median(years)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
