package features_test

import (
	"math"
	"testing"

	"github.com/okian/gamefit/internal/domain/features"
	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

func year(y int) *int { return &y }

func scored(genre string, price float64, released *int, devs, cats string) model.ScoredRecord {
	return model.ScoredRecord{NormalizedRecord: model.NormalizedRecord{
		Genre:       genre,
		Price:       price,
		ReleaseYear: released,
		Developers:  devs,
		Categories:  cats,
	}}
}

func TestEngineer(t *testing.T) {
	Convey("Given scored records", t, func() {
		records := []model.ScoredRecord{
			scored("Action", 9.99, year(2020), "Studio A, Studio B", "Single-player, Multiplayer"),
			scored("Action", 0, nil, "", "Single-player"),
			scored("RPG", 59.99, year(2010), "Studio C", ""),
			scored("RPG", 5, year(2030), "A,,B,C", "online MULTIPLAYER"),
		}

		Convey("When engineering features", func() {
			out := features.Engineer(records, features.Options{ReferenceYear: 2024})

			Convey("Then market share is genre frequency over dataset size", func() {
				So(out[0].GenreMarketShare, ShouldEqual, 0.5)
				So(out[2].GenreMarketShare, ShouldEqual, 0.5)
			})

			Convey("Then years since release is clipped and imputed", func() {
				So(out[0].YearsSinceRelease, ShouldEqual, 4)
				So(out[2].YearsSinceRelease, ShouldEqual, 14)
				So(out[3].YearsSinceRelease, ShouldEqual, 0)
				// median of 2020, 2010, 2030 is 2020
				So(out[1].YearsSinceRelease, ShouldEqual, 4)
			})

			Convey("Then team size counts developers with a floor of one", func() {
				So(out[0].TeamSize, ShouldEqual, 2)
				So(out[1].TeamSize, ShouldEqual, 1)
				So(out[3].TeamSize, ShouldEqual, 3)
			})

			Convey("Then multiplayer comes from category tags", func() {
				So(out[0].IsMultiplayer, ShouldEqual, 1)
				So(out[1].IsMultiplayer, ShouldEqual, 0)
				So(out[3].IsMultiplayer, ShouldEqual, 1)
			})

			Convey("Then content scope combines log price and log playtime", func() {
				So(out[2].ContentScope, ShouldAlmostEqual, 0.5*math.Log1p(59.99)+0.5*math.Log1p(1))
			})

			Convey("Then input records are carried through", func() {
				So(out[2].Genre, ShouldEqual, "RPG")
				So(out[2].Price, ShouldEqual, 59.99)
			})
		})
	})

	Convey("Given no known release year", t, func() {
		out := features.Engineer([]model.ScoredRecord{scored("Action", 1, nil, "", "")}, features.Options{})
		So(out[0].YearsSinceRelease, ShouldEqual, 0)
	})
}

func TestFromRequest(t *testing.T) {
	Convey("Given a minimal prediction request", t, func() {
		req := prediction.Request{Genre: "Action", Platform: "pc", Price: 19.99, ReleaseYear: 2020, IsMultiplayer: true, TeamSize: 5}

		Convey("When rebuilding features", func() {
			rec := features.FromRequest(req, 2024)

			Convey("Then observable fields come from the request", func() {
				So(rec.Genre, ShouldEqual, "Action")
				So(rec.Platform, ShouldEqual, model.PlatformPC)
				So(rec.Price, ShouldEqual, 19.99)
				So(rec.YearsSinceRelease, ShouldEqual, 4)
				So(rec.TeamSize, ShouldEqual, 5)
				So(rec.IsMultiplayer, ShouldEqual, 1)
			})

			Convey("Then every approximated feature holds its placeholder", func() {
				src := features.NewSource(&rec)
				for _, name := range features.Approximated() {
					spec, ok := model.Lookup(name)
					So(ok, ShouldBeTrue)
					So(src.NumericValue(name), ShouldEqual, spec.Placeholder)
				}
				So(features.Approximated(), ShouldResemble, []string{model.FeatureGenreMarketShare, model.FeatureContentScope})
			})

			Convey("Then the placeholder does not move with the price", func() {
				other := req
				other.Price = 500
				So(features.FromRequest(other, 2024).ContentScope, ShouldEqual, rec.ContentScope)
			})
		})
	})

	Convey("Given a future release year", t, func() {
		rec := features.FromRequest(prediction.Request{Genre: "Action", Platform: "PC", ReleaseYear: 2035, TeamSize: 1}, 2024)
		So(rec.YearsSinceRelease, ShouldEqual, 0)
	})
}

func TestSource(t *testing.T) {
	Convey("Given an engineered record", t, func() {
		rec := model.EngineeredRecord{TeamSize: 3, IsMultiplayer: 1}
		rec.Genre = "RPG"
		rec.Platform = model.PlatformMac
		src := features.NewSource(&rec)

		So(src.NumericValue(model.FeatureTeamSize), ShouldEqual, 3)
		So(src.NumericValue(model.FeatureIsMultiplayer), ShouldEqual, 1)
		So(src.CategoricalValue(model.FeatureGenre), ShouldEqual, "RPG")
		So(src.CategoricalValue(model.FeaturePlatform), ShouldEqual, "Mac")
		So(math.IsNaN(src.NumericValue("nope")), ShouldBeTrue)
		So(src.CategoricalValue("nope"), ShouldEqual, "")
	})
}
