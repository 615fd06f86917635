package features

import (
	"math"
	"strings"

	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/normalize"
	"github.com/okian/gamefit/internal/domain/prediction"
)

// FromRequest rebuilds an engineered record from a prediction request.
// Observable fields come from the request. Features the schema flags as
// approximated take their fixed placeholder and are never recomputed, even
// where a formula would be possible (content_scope from price alone).
func FromRequest(req prediction.Request, referenceYear int) model.EngineeredRecord {
	if referenceYear == 0 {
		referenceYear = DefaultReferenceYear
	}
	year := req.ReleaseYear
	rec := model.EngineeredRecord{
		ScoredRecord: model.ScoredRecord{
			NormalizedRecord: model.NormalizedRecord{
				Genre:       requestGenre(req.Genre),
				Platform:    normalize.ParsePlatform(req.Platform),
				Price:       math.Max(0, req.Price),
				ReleaseYear: &year,
			},
		},
		YearsSinceRelease: YearsSince(referenceYear, float64(year)),
		TeamSize:          max(req.TeamSize, 1),
		IsMultiplayer:     boolToInt(req.IsMultiplayer),
	}
	rec.GenreMarketShare = placeholder(model.FeatureGenreMarketShare)
	rec.ContentScope = placeholder(model.FeatureContentScope)
	return rec
}

// Approximated returns the names of features whose inference value is a
// placeholder.
func Approximated() []string {
	var out []string
	for _, f := range model.Schema {
		if f.Approximated {
			out = append(out, f.Name)
		}
	}
	return out
}

func placeholder(name string) float64 {
	f, _ := model.Lookup(name)
	return f.Placeholder
}

func requestGenre(g string) string {
	g = strings.TrimSpace(g)
	if g == "" || strings.EqualFold(g, model.UnknownGenre) {
		return model.UnknownGenre
	}
	return g
}
