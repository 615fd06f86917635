package normalize_test

import (
	"testing"

	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecord(t *testing.T) {
	Convey("Given a well formed catalog row", t, func() {
		raw := model.RawGameRecord{
			Genres:                 model.Raw("Action, Indie"),
			Windows:                model.Raw("True"),
			Mac:                    model.Raw("True"),
			Price:                  model.Raw("19.99"),
			Positive:               model.Raw("1200"),
			Negative:               model.Raw("300"),
			ReleaseDate:            model.Raw("Oct 21, 2008"),
			Developers:             model.Raw("Valve, Hidden Path"),
			Categories:             model.Raw("Single-player,Multi-player"),
			AveragePlaytimeForever: model.Raw("42"),
		}

		Convey("When normalizing it", func() {
			rec := normalize.Record(raw)

			Convey("Then the schema fields are typed", func() {
				So(rec.Genre, ShouldEqual, "Action")
				So(rec.Platform, ShouldEqual, model.PlatformPC)
				So(rec.Price, ShouldAlmostEqual, 19.99)
				So(rec.PositiveReviews, ShouldEqual, 1200)
				So(rec.NegativeReviews, ShouldEqual, 300)
				So(rec.ReleaseYear, ShouldNotBeNil)
				So(*rec.ReleaseYear, ShouldEqual, 2008)
				So(rec.Developers, ShouldEqual, "Valve, Hidden Path")
				So(rec.Playtime, ShouldEqual, 42)
			})
		})
	})

	Convey("Given an empty row", t, func() {
		rec := normalize.Record(model.RawGameRecord{})

		Convey("Then every field falls back to its default", func() {
			So(rec.Genre, ShouldEqual, model.UnknownGenre)
			So(rec.Platform, ShouldEqual, model.PlatformUnknown)
			So(rec.Price, ShouldEqual, 0)
			So(rec.PositiveReviews, ShouldEqual, 0)
			So(rec.NegativeReviews, ShouldEqual, 0)
			So(rec.ReleaseYear, ShouldBeNil)
		})
	})

	Convey("Given malformed values", t, func() {
		rec := normalize.Record(model.RawGameRecord{
			Genres:      model.Raw("  "),
			Price:       model.Raw("free"),
			Positive:    model.Raw("-4"),
			Negative:    model.Raw("12.0"),
			ReleaseDate: model.Raw("coming soon"),
		})

		Convey("Then they degrade to defaults instead of failing", func() {
			So(rec.Genre, ShouldEqual, model.UnknownGenre)
			So(rec.Price, ShouldEqual, 0)
			So(rec.PositiveReviews, ShouldEqual, 0)
			So(rec.NegativeReviews, ShouldEqual, 12)
			So(rec.ReleaseYear, ShouldBeNil)
		})
	})
}

func TestGenre(t *testing.T) {
	Convey("Given genre strings", t, func() {
		So(normalize.Genre(model.Raw("RPG,Strategy")), ShouldEqual, "RPG")
		So(normalize.Genre(model.Raw("unknown")), ShouldEqual, model.UnknownGenre)
		So(normalize.Genre(model.Raw("UNKNOWN, Action")), ShouldEqual, model.UnknownGenre)
		So(normalize.Genre(model.RawField{}), ShouldEqual, model.UnknownGenre)
	})
}

func TestDetectPlatform(t *testing.T) {
	Convey("Given platform flags", t, func() {
		yes, no := model.Raw("true"), model.Raw("false")

		Convey("Then windows wins over everything", func() {
			So(normalize.DetectPlatform(yes, yes, yes), ShouldEqual, model.PlatformPC)
		})
		Convey("Then mac wins over linux", func() {
			So(normalize.DetectPlatform(no, yes, yes), ShouldEqual, model.PlatformMac)
		})
		Convey("Then linux alone is Linux", func() {
			So(normalize.DetectPlatform(no, no, yes), ShouldEqual, model.PlatformLinux)
		})
		Convey("Then no flag is Unknown", func() {
			So(normalize.DetectPlatform(no, model.RawField{}, model.Raw("maybe")), ShouldEqual, model.PlatformUnknown)
		})
	})
}

func TestReleaseYear(t *testing.T) {
	Convey("Given catalog date formats", t, func() {
		for in, want := range map[string]int{
			"Oct 21, 2008": 2008,
			"21 Oct, 2008": 2008,
			"2019-03-01":   2019,
			"Mar 2020":     2020,
			"2015":         2015,
		} {
			got := normalize.ReleaseYear(model.Raw(in))
			So(got, ShouldNotBeNil)
			So(*got, ShouldEqual, want)
		}
	})
}

func TestAll(t *testing.T) {
	Convey("Given a batch with bad rows", t, func() {
		raws := []model.RawGameRecord{{}, {Price: model.Raw("x")}, {Genres: model.Raw("Casual")}}

		Convey("Then no row is dropped", func() {
			So(normalize.All(raws), ShouldHaveLength, len(raws))
		})
	})
}

func TestParsePlatform(t *testing.T) {
	Convey("Given request platform names", t, func() {
		So(normalize.ParsePlatform("pc"), ShouldEqual, model.PlatformPC)
		So(normalize.ParsePlatform(" Linux "), ShouldEqual, model.PlatformLinux)
		So(normalize.ParsePlatform(""), ShouldEqual, model.PlatformUnknown)
		So(normalize.ParsePlatform("Console"), ShouldEqual, model.Platform("Console"))
	})
}
