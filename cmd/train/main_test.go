package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/prediction"
	"github.com/okian/gamefit/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// writeCatalog writes a catalog whose review volume grows with team size.
func writeCatalog(dir string, n int) string {
	rng := rand.New(rand.NewSource(5))
	genres := []string{"Action", "Indie", "RPG"}
	var b strings.Builder
	b.WriteString("Name,Release date,Price,Windows,Mac,Linux,Positive,Negative,Developers,Categories,Genres,Tags\n")
	for i := 0; i < n; i++ {
		team := 1 + rng.Intn(8)
		devs := make([]string, team)
		for d := range devs {
			devs[d] = fmt.Sprintf("Dev %d", d)
		}
		fmt.Fprintf(&b, "Game %d,\"Jan 5, %d\",%.2f,True,False,False,%d,%d,\"%s\",\"Single-player,Multiplayer\",\"%s,Casual\",\"Fun,%s\"\n",
			i, 2010+rng.Intn(14), rng.Float64()*30, team*40+rng.Intn(30), rng.Intn(20),
			strings.Join(devs, ","), genres[i%len(genres)], genres[(i+1)%len(genres)])
	}
	path := filepath.Join(dir, "games.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		panic(err)
	}
	return path
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"gamefit-train"}, args...))
	return out.String(), err
}

func TestTrainCLI(t *testing.T) {
	convey.Convey("Given a catalog on disk", t, func() {
		_ = os.Unsetenv("GAMEFIT_CONFIG")
		dir := t.TempDir()
		data := writeCatalog(dir, 240)
		artifacts := filepath.Join(dir, "artifacts")

		convey.Convey("When a model is trained", func() {
			out, err := run("--artifacts", artifacts, "--model-version", "cli", "train",
				"--data", data, "--trees", "8", "--folds", "3")

			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "model version:  cli")
			convey.So(out, convey.ShouldContainSubstring, "genre-relative-q75/v1")

			convey.Convey("Then inspect lists and describes it", func() {
				list, err := run("--artifacts", artifacts, "inspect", "--list")
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.TrimSpace(list), convey.ShouldEqual, "cli")

				body, err := run("--artifacts", artifacts, "--model-version", "cli", "inspect")
				convey.So(err, convey.ShouldBeNil)
				var meta repository.Metadata
				convey.So(json.Unmarshal([]byte(body), &meta), convey.ShouldBeNil)
				convey.So(meta.ModelVersion, convey.ShouldEqual, "cli")
				convey.So(meta.TrainSize+meta.TestSize, convey.ShouldEqual, 240)
			})

			convey.Convey("Then predict scores a concept against it", func() {
				body, err := run("--artifacts", artifacts, "--model-version", "cli", "predict",
					"--genre", "Action", "--platform", "PC", "--price", "19.99",
					"--release-year", "2023", "--multiplayer", "--team-size", "5")
				convey.So(err, convey.ShouldBeNil)
				var resp prediction.Response
				convey.So(json.Unmarshal([]byte(body), &resp), convey.ShouldBeNil)
				convey.So(resp.ModelVersion, convey.ShouldEqual, "cli")
				convey.So(resp.SuccessProbability, convey.ShouldBeBetweenOrEqual, 0, 100)
			})

			convey.Convey("Then predict rejects an out of range request", func() {
				_, err := run("--artifacts", artifacts, "--model-version", "cli", "predict",
					"--genre", "Action", "--release-year", "1970")
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When predicting without a model", func() {
			_, err := run("--artifacts", artifacts, "predict", "--genre", "Action", "--release-year", "2023")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When reporting label frequencies", func() {
			reports := filepath.Join(dir, "reports")
			out, err := run("report", "--data", data, "--out", reports, "--field", "genres", "--field", "tags")

			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "games: 240")

			convey.Convey("Then one table per field and mode is written", func() {
				for _, name := range []string{
					"primary_genre_distribution.csv", "all_genre_distribution.csv",
					"primary_tag_distribution.csv", "all_tag_distribution.csv",
				} {
					_, err := os.Stat(filepath.Join(reports, name))
					convey.So(err, convey.ShouldBeNil)
				}
				_, err := os.Stat(filepath.Join(reports, "primary_category_distribution.csv"))
				convey.So(os.IsNotExist(err), convey.ShouldBeTrue)

				all, err := os.ReadFile(filepath.Join(reports, "all_genre_distribution.csv"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(all), convey.ShouldStartWith, "genre,count,percentage\nCasual,240,100.00\n")
			})
		})

		convey.Convey("When reporting an unknown field", func() {
			_, err := run("report", "--data", data, "--out", dir, "--field", "developers")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
