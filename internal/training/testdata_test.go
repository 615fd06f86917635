package training

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// syntheticCatalog builds raw records whose review volume grows with team
// size, so the label is learnable from the features.
func syntheticCatalog(n int, seed int64) []model.RawGameRecord {
	rng := rand.New(rand.NewSource(seed))
	genres := []string{"Action", "Indie", "RPG", "Strategy"}
	out := make([]model.RawGameRecord, n)
	for i := range out {
		team := 1 + rng.Intn(20)
		devs := make([]string, team)
		for d := range devs {
			devs[d] = fmt.Sprintf("Dev %d", d)
		}
		categories := "Single-player"
		if rng.Intn(3) == 0 {
			categories += ",Multiplayer"
		}
		out[i] = model.RawGameRecord{
			Genres:                 model.Raw(genres[rng.Intn(len(genres))] + ",Casual"),
			Windows:                model.Raw("True"),
			Mac:                    model.Raw(strconv.FormatBool(rng.Intn(2) == 0)),
			Linux:                  model.Raw("False"),
			Price:                  model.Raw(fmt.Sprintf("%.2f", rng.Float64()*60)),
			Positive:               model.Raw(strconv.Itoa(team*100 + rng.Intn(80))),
			Negative:               model.Raw(strconv.Itoa(rng.Intn(60))),
			ReleaseDate:            model.Raw(fmt.Sprintf("Mar 3, %d", 2005+rng.Intn(19))),
			Developers:             model.Raw(strings.Join(devs, ",")),
			Categories:             model.Raw(categories),
			AveragePlaytimeForever: model.Raw(strconv.Itoa(rng.Intn(600))),
		}
		if rng.Intn(10) == 0 {
			out[i].Windows = model.RawField{}
		}
	}
	return out
}

// identicalCatalog builds n indistinguishable records.
func identicalCatalog(n int) []model.RawGameRecord {
	out := make([]model.RawGameRecord, n)
	for i := range out {
		out[i] = model.RawGameRecord{
			Genres:   model.Raw("Action"),
			Windows:  model.Raw("True"),
			Positive: model.Raw("10"),
			Negative: model.Raw("2"),
		}
	}
	return out
}

func toCSV(raws []model.RawGameRecord) string {
	var b strings.Builder
	b.WriteString("Name,Release date,Price,Windows,Mac,Linux,Positive,Negative,Average playtime forever,Developers,Categories,Genres\n")
	q := func(f model.RawField) string { return strconv.Quote(f.Value) }
	for i, r := range raws {
		fmt.Fprintf(&b, "Game %d,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n", i,
			q(r.ReleaseDate), q(r.Price), q(r.Windows), q(r.Mac), q(r.Linux), q(r.Positive),
			q(r.Negative), q(r.AveragePlaytimeForever), q(r.Developers), q(r.Categories), q(r.Genres))
	}
	return b.String()
}
