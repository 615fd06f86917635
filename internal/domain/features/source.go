package features

import (
	"math"

	"github.com/okian/gamefit/internal/domain/model"
)

// Source exposes an engineered record by feature name.
type Source struct {
	rec *model.EngineeredRecord
}

// NewSource wraps rec.
func NewSource(rec *model.EngineeredRecord) Source { return Source{rec: rec} }

// NumericValue returns the named numeric feature, or NaN when the name is not
// part of the schema.
func (s Source) NumericValue(name string) float64 {
	switch name {
	case model.FeaturePrice:
		return s.rec.Price
	case model.FeatureYearsSinceRelease:
		return s.rec.YearsSinceRelease
	case model.FeatureGenreMarketShare:
		return s.rec.GenreMarketShare
	case model.FeatureContentScope:
		return s.rec.ContentScope
	case model.FeatureTeamSize:
		return float64(s.rec.TeamSize)
	case model.FeatureIsMultiplayer:
		return float64(s.rec.IsMultiplayer)
	default:
		return math.NaN()
	}
}

// CategoricalValue returns the named categorical feature, or "" when the name
// is not part of the schema.
func (s Source) CategoricalValue(name string) string {
	switch name {
	case model.FeatureGenre:
		return s.rec.Genre
	case model.FeaturePlatform:
		return string(s.rec.Platform)
	default:
		return ""
	}
}
