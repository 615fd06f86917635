package model

// Feature names as stored in artifact metadata.
const (
	FeaturePrice             = "price"
	FeatureYearsSinceRelease = "years_since_release"
	FeatureGenreMarketShare  = "genre_market_share"
	FeatureContentScope      = "content_scope"
	FeatureTeamSize          = "team_size"
	FeatureIsMultiplayer     = "is_multiplayer"
	FeatureGenre             = "genre"
	FeaturePlatform          = "platform"
)

// FeatureKind tells the preprocessor how to treat a column.
type FeatureKind string

// Feature kinds.
const (
	KindNumeric     FeatureKind = "numeric"
	KindCategorical FeatureKind = "categorical"
)

// FeatureSpec describes one classifier input column.
//
// Approximated features are computed from training-only data (dataset-wide
// frequencies, playtime). A prediction request cannot observe them, so the
// service substitutes Placeholder instead of recomputing them.
type FeatureSpec struct {
	Name         string
	Kind         FeatureKind
	Approximated bool
	Placeholder  float64
}

// Schema is the fixed feature schema of the success classifier, numeric
// columns first, in the order the pipeline consumes them.
var Schema = []FeatureSpec{ //nolint:gochecknoglobals // fixed schema table
	{Name: FeaturePrice, Kind: KindNumeric},
	{Name: FeatureYearsSinceRelease, Kind: KindNumeric},
	{Name: FeatureGenreMarketShare, Kind: KindNumeric, Approximated: true, Placeholder: 0.05},
	{Name: FeatureContentScope, Kind: KindNumeric, Approximated: true, Placeholder: 1.0},
	{Name: FeatureTeamSize, Kind: KindNumeric},
	{Name: FeatureIsMultiplayer, Kind: KindNumeric},
	{Name: FeatureGenre, Kind: KindCategorical},
	{Name: FeaturePlatform, Kind: KindCategorical},
}

// NumericFeatures returns the numeric feature names in schema order.
func NumericFeatures() []string { return namesOf(KindNumeric) }

// CategoricalFeatures returns the categorical feature names in schema order.
func CategoricalFeatures() []string { return namesOf(KindCategorical) }

// FeatureNames returns every feature name in schema order.
func FeatureNames() []string {
	out := make([]string, 0, len(Schema))
	for _, f := range Schema {
		out = append(out, f.Name)
	}
	return out
}

// Lookup returns the spec for name.
func Lookup(name string) (FeatureSpec, bool) {
	for _, f := range Schema {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureSpec{}, false
}

func namesOf(kind FeatureKind) []string {
	var out []string
	for _, f := range Schema {
		if f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}
