package training

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/features"
	"github.com/okian/gamefit/internal/domain/labeling"
	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/pipeline"
	"github.com/okian/gamefit/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

func fastTrainer(store repository.Store, opts ...Option) *Trainer {
	base := []Option{
		WithStore(store),
		WithModelVersion("test"),
		WithPipelineOptions(pipeline.WithTrees(10), pipeline.WithFolds(3)),
	}
	return New(append(base, opts...)...)
}

func TestStratifiedSplit(t *testing.T) {
	Convey("Given 80 negatives and 20 positives", t, func() {
		labels := make([]int, 100)
		for i := 0; i < 20; i++ {
			labels[i*5] = 1
		}
		split, err := StratifiedSplit(labels, 0.2, 42)
		So(err, ShouldBeNil)

		Convey("Each class is held out in proportion", func() {
			So(split.Test, ShouldHaveLength, 20)
			So(split.Train, ShouldHaveLength, 80)
			var pos int
			for _, i := range split.Test {
				pos += labels[i]
			}
			So(pos, ShouldEqual, 4)
		})

		Convey("The split is disjoint and seeded", func() {
			seen := map[int]bool{}
			for _, i := range append(append([]int{}, split.Train...), split.Test...) {
				So(seen[i], ShouldBeFalse)
				seen[i] = true
			}
			So(seen, ShouldHaveLength, 100)

			again, _ := StratifiedSplit(labels, 0.2, 42)
			So(again.Test, ShouldResemble, split.Test)
		})
	})

	Convey("Tiny classes keep one member on each side", t, func() {
		split, err := StratifiedSplit([]int{0, 0, 0, 0, 1, 1}, 0.2, 1)
		So(err, ShouldBeNil)
		So(split.Test, ShouldHaveLength, 2)
	})

	Convey("A class with one member cannot be split", t, func() {
		_, err := StratifiedSplit([]int{0, 0, 0, 1}, 0.2, 1)
		So(errors.Is(err, ErrTooFewMembers), ShouldBeTrue)
	})
}

func TestTrainerRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a learnable catalog", t, func() {
		store := repository.NewMemoryStore()
		trainedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		trainer := fastTrainer(store, WithClock(func() time.Time { return trainedAt }))

		report, err := trainer.Run(ctx, syntheticCatalog(400, 3))
		So(err, ShouldBeNil)

		Convey("The report describes the run", func() {
			So(report.Records, ShouldEqual, 400)
			So(report.RunID, ShouldNotBeEmpty)
			So(report.Label.Policy, ShouldEqual, labeling.PolicyGenreRelativeQ75)
			So(report.Label.PositiveRate(), ShouldBeBetween, 0.2, 0.35)
			So(len(report.Split.Train)+len(report.Split.Test), ShouldEqual, 400)
			So(len(report.Split.Test), ShouldBeBetweenOrEqual, 79, 81)
			So(report.Accuracy, ShouldBeBetweenOrEqual, 0, 1)
			So(report.ROCAUC, ShouldBeGreaterThan, 0.7)
		})

		Convey("The artifact is saved under the version", func() {
			artifact, err := store.Load(ctx, "test")
			So(err, ShouldBeNil)
			meta := artifact.Metadata
			So(meta.ModelVersion, ShouldEqual, "test")
			So(meta.Features, ShouldResemble, model.FeatureNames())
			So(meta.Approximated, ShouldResemble, features.Approximated())
			So(meta.LabelPolicy, ShouldEqual, labeling.PolicyGenreRelativeQ75)
			So(meta.LabelThreshold, ShouldEqual, report.Label.Threshold)
			So(meta.ReferenceYear, ShouldEqual, features.DefaultReferenceYear)
			So(meta.RunID, ShouldEqual, report.RunID)
			So(meta.TrainedAt.Equal(trainedAt), ShouldBeTrue)
			So(meta.Scores.Accuracy, ShouldEqual, report.Accuracy)
			So(*meta.Scores.ROCAUC, ShouldEqual, report.ROCAUC)
			So(meta.TrainSize, ShouldEqual, len(report.Split.Train))
		})

		Convey("The saved pipeline scores a request", func() {
			artifact, err := store.Load(ctx, "test")
			So(err, ShouldBeNil)
			rec := features.FromRequest(prediction.Request{
				Genre: "Action", Platform: "PC", Price: 19.99, ReleaseYear: 2023, TeamSize: 5,
			}, artifact.Metadata.ReferenceYear)
			p, err := artifact.Pipeline.PredictProba(features.NewSource(&rec))
			So(err, ShouldBeNil)
			So(p, ShouldBeBetweenOrEqual, 0, 1)
		})

		Convey("A rerun with the same seed reproduces the scores", func() {
			again, err := fastTrainer(repository.NewMemoryStore()).Run(ctx, syntheticCatalog(400, 3))
			So(err, ShouldBeNil)
			So(again.Accuracy, ShouldEqual, report.Accuracy)
			So(again.ROCAUC, ShouldEqual, report.ROCAUC)
			So(again.RunID, ShouldNotEqual, report.RunID)
		})
	})

	Convey("Given a catalog that labels to a single class", t, func() {
		store := repository.NewMemoryStore()
		_, err := fastTrainer(store).Run(ctx, identicalCatalog(50))

		Convey("Training aborts before fitting and saves nothing", func() {
			So(errors.Is(err, labeling.ErrSingleClass), ShouldBeTrue)
			versions, err := store.Versions(ctx)
			So(err, ShouldBeNil)
			So(versions, ShouldBeEmpty)
		})
	})

	Convey("An empty catalog is rejected", t, func() {
		_, err := fastTrainer(repository.NewMemoryStore()).Run(ctx, nil)
		So(errors.Is(err, ErrEmptyDataset), ShouldBeTrue)
	})

	Convey("A cancelled context stops the fit", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		store := repository.NewMemoryStore()
		_, err := fastTrainer(store).Run(cctx, syntheticCatalog(100, 1))
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		versions, _ := store.Versions(ctx)
		So(versions, ShouldBeEmpty)
	})
}

func TestTrainerRunFile(t *testing.T) {
	Convey("Given a CSV catalog on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "games.csv")
		So(os.WriteFile(path, []byte(toCSV(syntheticCatalog(200, 9))), 0o600), ShouldBeNil)

		artifacts := filepath.Join(dir, "artifacts")
		trainer := fastTrainer(repository.NewFileStore(artifacts), WithModelVersion("2024.06"))
		report, err := trainer.RunFile(context.Background(), path)

		Convey("Training writes a version directory", func() {
			So(err, ShouldBeNil)
			So(report.Records, ShouldEqual, 200)
			_, err := os.Stat(filepath.Join(artifacts, "2024.06", repository.MetadataFile))
			So(err, ShouldBeNil)
		})
	})

	Convey("A missing file fails before training", t, func() {
		_, err := New(WithStore(repository.NewMemoryStore())).RunFile(context.Background(), "does-not-exist.csv")
		So(err, ShouldNotBeNil)
	})
}
