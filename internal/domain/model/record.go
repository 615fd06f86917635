// Package model contains the record schemas passed between pipeline stages.
package model

// RawField is one untyped catalog cell. Valid is false when the column is
// absent from the dataset or the cell is empty.
type RawField struct {
	Value string
	Valid bool
}

// Raw builds a present cell.
func Raw(v string) RawField { return RawField{Value: v, Valid: true} }

// RawGameRecord is one row of the source catalog, untrusted and untyped.
type RawGameRecord struct {
	Genres                 RawField
	Windows                RawField
	Mac                    RawField
	Linux                  RawField
	Price                  RawField
	Positive               RawField
	Negative               RawField
	ReleaseDate            RawField
	Developers             RawField
	Categories             RawField
	Tags                   RawField
	AveragePlaytimeForever RawField
}

// Platform is the primary storefront platform of a game.
type Platform string

// Known platforms. Detection priority is PC, Mac, Linux.
const (
	PlatformPC      Platform = "PC"
	PlatformMac     Platform = "Mac"
	PlatformLinux   Platform = "Linux"
	PlatformUnknown Platform = "Unknown"
)

// UnknownGenre is substituted for a missing genre string.
const UnknownGenre = "Unknown"

// NormalizedRecord is a RawGameRecord mapped onto the fixed schema. Every
// field holds a defined value; ReleaseYear is nil when the date was unparseable.
type NormalizedRecord struct {
	Genre           string
	Platform        Platform
	Price           float64
	PositiveReviews int
	NegativeReviews int
	ReleaseYear     *int

	// Carried through for the feature stage.
	Developers string
	Categories string
	Playtime   float64
}

// ScoredRecord adds the genre-relative success score and label.
type ScoredRecord struct {
	NormalizedRecord

	TotalReviews   int
	ReviewRatio    float64
	LogReviews     float64
	GenreReviewPct float64
	GenreRatingPct float64
	SuccessScore   float64
	SuccessBinary  int
}

// EngineeredRecord adds the model-ready features.
type EngineeredRecord struct {
	ScoredRecord

	YearsSinceRelease float64
	GenreMarketShare  float64
	ContentScope      float64
	TeamSize          int
	IsMultiplayer     int
}
