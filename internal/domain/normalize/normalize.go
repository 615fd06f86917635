// Package normalize maps raw catalog rows onto the fixed record schema.
//
// Normalization never fails and never drops a row: anything missing or
// malformed is replaced with its documented default so later stages can
// assume a fully populated record.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gamefit/internal/domain/model"
)

// releaseLayouts lists the date shapes found in storefront catalogs.
var releaseLayouts = []string{ //nolint:gochecknoglobals // fixed layout table
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan, 2006",
	"2 Jan 2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2006",
	"January 2006",
	"2006",
}

// All normalizes every row. len(result) == len(raws) always holds.
func All(raws []model.RawGameRecord) []model.NormalizedRecord {
	out := make([]model.NormalizedRecord, len(raws))
	for i := range raws {
		out[i] = Record(raws[i])
	}
	return out
}

// Record normalizes one row.
func Record(raw model.RawGameRecord) model.NormalizedRecord {
	return model.NormalizedRecord{
		Genre:           Genre(raw.Genres),
		Platform:        DetectPlatform(raw.Windows, raw.Mac, raw.Linux),
		Price:           nonNegativeFloat(raw.Price),
		PositiveReviews: nonNegativeInt(raw.Positive),
		NegativeReviews: nonNegativeInt(raw.Negative),
		ReleaseYear:     ReleaseYear(raw.ReleaseDate),
		Developers:      text(raw.Developers),
		Categories:      text(raw.Categories),
		Playtime:        nonNegativeFloat(raw.AveragePlaytimeForever),
	}
}

// Genre returns the primary (first listed) genre.
func Genre(f model.RawField) string {
	if !f.Valid {
		return model.UnknownGenre
	}
	first, _, _ := strings.Cut(f.Value, ",")
	first = strings.TrimSpace(first)
	if first == "" || strings.EqualFold(first, model.UnknownGenre) {
		return model.UnknownGenre
	}
	return first
}

// DetectPlatform applies the fixed priority windows, mac, linux. The first
// set flag wins even if several are set.
func DetectPlatform(windows, mac, linux model.RawField) model.Platform {
	switch {
	case flag(windows):
		return model.PlatformPC
	case flag(mac):
		return model.PlatformMac
	case flag(linux):
		return model.PlatformLinux
	default:
		return model.PlatformUnknown
	}
}

// ReleaseYear parses a release date and returns its year, or nil.
func ReleaseYear(f model.RawField) *int {
	if !f.Valid {
		return nil
	}
	v := strings.TrimSpace(f.Value)
	if v == "" {
		return nil
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y := t.Year()
			return &y
		}
	}
	return nil
}

// ParsePlatform maps a free-form platform name onto the enum. Names outside
// the enum are kept verbatim so the encoder can treat them as unseen.
func ParsePlatform(s string) model.Platform {
	s = strings.TrimSpace(s)
	for _, p := range []model.Platform{model.PlatformPC, model.PlatformMac, model.PlatformLinux, model.PlatformUnknown} {
		if strings.EqualFold(s, string(p)) {
			return p
		}
	}
	if s == "" {
		return model.PlatformUnknown
	}
	return model.Platform(s)
}

func flag(f model.RawField) bool {
	if !f.Valid {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(f.Value)) {
	case "true", "t", "1", "yes", "y", "1.0":
		return true
	default:
		return false
	}
}

func nonNegativeFloat(f model.RawField) float64 {
	if !f.Valid {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func nonNegativeInt(f model.RawField) int {
	v := nonNegativeFloat(f)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

func text(f model.RawField) string {
	if !f.Valid {
		return ""
	}
	return strings.TrimSpace(f.Value)
}
