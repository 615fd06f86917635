package pipeline

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type sample struct {
	num map[string]float64
	cat map[string]string
}

func (s sample) NumericValue(name string) float64 {
	if v, ok := s.num[name]; ok {
		return v
	}
	return math.NaN()
}

func (s sample) CategoricalValue(name string) string { return s.cat[name] }

func syntheticSamples(n int, seed int64) ([]Source, []int) {
	rng := rand.New(rand.NewSource(seed))
	genres := []string{"Action", "Indie", "RPG"}
	out := make([]Source, n)
	labels := make([]int, n)
	for i := range out {
		x := rng.Float64()
		g := genres[rng.Intn(len(genres))]
		score := x
		if g == "RPG" {
			score += 0.4
		}
		if score+rng.NormFloat64()*0.05 > 0.8 {
			labels[i] = 1
		}
		out[i] = sample{
			num: map[string]float64{"x": x, "noise": rng.Float64()},
			cat: map[string]string{"genre": g},
		}
	}
	return out, labels
}

func smallPipeline() *Pipeline {
	return New(
		WithNumeric("x", "noise"),
		WithCategorical("genre"),
		WithTrees(12),
		WithFolds(3),
		WithParallelism(4),
	)
}

func TestPreprocessor(t *testing.T) {
	Convey("Given rows with gaps", t, func() {
		rows := []Row{
			{Numeric: []float64{1}, Categorical: []string{"b"}},
			{Numeric: []float64{math.NaN()}, Categorical: []string{"a"}},
			{Numeric: []float64{3}, Categorical: []string{"b"}},
			{Numeric: []float64{5}, Categorical: []string{""}},
		}
		p := FitPreprocessor(rows, 1, 1)

		Convey("Numeric gaps take the median", func() {
			So(p.Medians[0], ShouldEqual, 3)
			So(p.Means[0], ShouldEqual, 3)
		})

		Convey("Categorical gaps take the most frequent value", func() {
			So(p.Fill[0], ShouldEqual, "b")
			So(p.Categories[0], ShouldResemble, []string{"a", "b"})
		})

		Convey("Transform standardizes and one-hot encodes", func() {
			out := p.Transform(Row{Numeric: []float64{3}, Categorical: []string{"a"}})
			So(out, ShouldResemble, []float64{0, 1, 0})
			out = p.Transform(Row{Numeric: []float64{math.NaN()}, Categorical: []string{""}})
			So(out, ShouldResemble, []float64{0, 0, 1})
		})

		Convey("Unknown categories encode as zeros", func() {
			out := p.Transform(Row{Numeric: []float64{3}, Categorical: []string{"zzz"}})
			So(out, ShouldResemble, []float64{0, 0, 0})
		})
	})

	Convey("A constant column scales by one", t, func() {
		rows := []Row{{Numeric: []float64{2}}, {Numeric: []float64{2}}}
		p := FitPreprocessor(rows, 1, 0)
		So(p.Scales[0], ShouldEqual, 1)
		So(p.Transform(Row{Numeric: []float64{4}}), ShouldResemble, []float64{2})
	})

	Convey("Ties for most frequent go to the smallest value", t, func() {
		So(mostFrequent(map[string]int{"b": 2, "a": 2, "c": 1}), ShouldEqual, "a")
		So(mostFrequent(map[string]int{}), ShouldEqual, missingCategory)
	})
}

func TestTree(t *testing.T) {
	Convey("A separable set is split exactly", t, func() {
		x := [][]float64{{0}, {1}, {2}, {3}}
		y := []int{0, 0, 1, 1}
		w := []float64{1, 1, 1, 1}
		tree := growTree(x, y, w, []int{0, 1, 2, 3}, treeParams{minSamplesLeaf: 1, maxFeatures: 1}, rand.New(rand.NewSource(1)))

		So(len(tree.Nodes), ShouldEqual, 3)
		So(tree.Nodes[0].Threshold, ShouldEqual, 1.5)
		So(tree.Predict([]float64{0.5}), ShouldEqual, 0)
		So(tree.Predict([]float64{2.5}), ShouldEqual, 1)
		So(tree.validate(1), ShouldBeNil)
		So(tree.validate(0), ShouldNotBeNil)
	})

	Convey("Constant features yield one weighted leaf", t, func() {
		x := [][]float64{{0}, {0}, {0}}
		y := []int{1, 0, 0}
		w := []float64{2, 1, 1}
		tree := growTree(x, y, w, []int{0, 1, 2}, treeParams{minSamplesLeaf: 1, maxFeatures: 1}, rand.New(rand.NewSource(1)))
		So(len(tree.Nodes), ShouldEqual, 1)
		So(tree.Predict([]float64{0}), ShouldEqual, 0.5)
	})

	Convey("Balanced weights invert class frequency", t, func() {
		w := balancedWeights([]int{0, 0, 0, 1})
		So(w[0], ShouldAlmostEqual, 4.0/6.0)
		So(w[1], ShouldEqual, 2)
	})

	Convey("Max features defaults to sqrt of width", t, func() {
		So(maxFeatures(0, 16), ShouldEqual, 4)
		So(maxFeatures(0, 1), ShouldEqual, 1)
		So(maxFeatures(10, 3), ShouldEqual, 3)
	})
}

func TestCalibration(t *testing.T) {
	Convey("Given scores that rise with the label", t, func() {
		scores := []float64{0.1, 0.2, 0.3, 0.4, 0.6, 0.7, 0.8, 0.9}
		labels := []int{0, 0, 0, 1, 0, 1, 1, 1}
		sig, err := FitSigmoid(scores, labels)

		So(err, ShouldBeNil)
		So(sig.A, ShouldBeLessThan, 0)
		So(sig.Apply(0.9), ShouldBeGreaterThan, sig.Apply(0.1))
		So(sig.Apply(0.9), ShouldBeLessThan, 1)
		So(sig.Apply(0.1), ShouldBeGreaterThan, 0)
	})

	Convey("Softplus stays finite for large inputs", t, func() {
		So(softplus(1000), ShouldEqual, 1000)
		So(softplus(-1000), ShouldEqual, 0)
		So(softplus(0), ShouldAlmostEqual, math.Ln2)
	})

	Convey("Stratified folds keep both classes in every fold", t, func() {
		y := []int{0, 0, 0, 0, 0, 0, 1, 1, 1}
		assign, err := stratifiedFolds(y, 3, 42)
		So(err, ShouldBeNil)
		for fold := 0; fold < 3; fold++ {
			var pos, neg int
			for i, a := range assign {
				if a != fold {
					continue
				}
				if y[i] == 1 {
					pos++
				} else {
					neg++
				}
			}
			So(pos, ShouldEqual, 1)
			So(neg, ShouldEqual, 2)
		}

		_, err = stratifiedFolds([]int{0, 0, 0, 1}, 3, 42)
		So(errors.Is(err, ErrTooFewSamples), ShouldBeTrue)
	})
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fitted pipeline", t, func() {
		samples, labels := syntheticSamples(300, 7)
		p := smallPipeline()
		So(p.Fitted(), ShouldBeFalse)
		So(p.Fit(ctx, samples, labels), ShouldBeNil)
		So(p.Fitted(), ShouldBeTrue)
		So(p.Features(), ShouldResemble, []string{"x", "noise", "genre"})

		Convey("Probabilities are bounded and ordered by the signal", func() {
			var posSum, negSum float64
			var posN, negN int
			for i, s := range samples {
				prob, err := p.PredictProba(s)
				So(err, ShouldBeNil)
				So(prob, ShouldBeBetweenOrEqual, 0, 1)
				if labels[i] == 1 {
					posSum += prob
					posN++
				} else {
					negSum += prob
					negN++
				}
			}
			So(posSum/float64(posN), ShouldBeGreaterThan, negSum/float64(negN))
		})

		Convey("An unseen category and a missing number still predict", func() {
			prob, err := p.PredictProba(sample{
				num: map[string]float64{"x": 0.5},
				cat: map[string]string{"genre": "Visual Novel"},
			})
			So(err, ShouldBeNil)
			So(prob, ShouldBeBetweenOrEqual, 0, 1)
		})

		Convey("A JSON round trip predicts identically", func() {
			data, err := p.Marshal()
			So(err, ShouldBeNil)
			restored, err := Unmarshal(data)
			So(err, ShouldBeNil)
			for _, s := range samples[:25] {
				want, _ := p.PredictProba(s)
				got, err := restored.PredictProba(s)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("A decoded preprocessor that cannot encode rows is rejected", func() {
			damaged := func(mutate func(pre *Preprocessor)) error {
				pre := *p.Preprocessor
				pre.Medians = append([]float64(nil), pre.Medians...)
				pre.Means = append([]float64(nil), pre.Means...)
				pre.Scales = append([]float64(nil), pre.Scales...)
				pre.Fill = append([]string(nil), pre.Fill...)
				mutate(&pre)
				clone := *p
				clone.Preprocessor = &pre
				data, err := clone.Marshal()
				So(err, ShouldBeNil)
				_, err = Unmarshal(data)
				return err
			}

			So(errors.Is(damaged(func(pre *Preprocessor) { pre.Scales = nil }), ErrMalformed), ShouldBeTrue)
			So(errors.Is(damaged(func(pre *Preprocessor) { pre.Means = pre.Means[:1] }), ErrMalformed), ShouldBeTrue)
			So(errors.Is(damaged(func(pre *Preprocessor) { pre.Fill = nil }), ErrMalformed), ShouldBeTrue)
			So(errors.Is(damaged(func(pre *Preprocessor) { pre.Scales[0] = 0 }), ErrMalformed), ShouldBeTrue)
			So(damaged(func(pre *Preprocessor) {}), ShouldBeNil)
		})

		Convey("Refitting with the same seed is reproducible", func() {
			again := smallPipeline()
			So(again.Fit(ctx, samples, labels), ShouldBeNil)
			a, _ := p.Marshal()
			b, _ := again.Marshal()
			So(string(b), ShouldEqual, string(a))
		})
	})

	Convey("Fit rejects unusable input", t, func() {
		samples, labels := syntheticSamples(30, 1)

		So(errors.Is(smallPipeline().Fit(ctx, nil, nil), ErrEmptyTrainingSet), ShouldBeTrue)
		So(errors.Is(smallPipeline().Fit(ctx, samples, labels[:10]), ErrLengthMismatch), ShouldBeTrue)
		So(errors.Is(smallPipeline().Fit(ctx, samples, make([]int, len(samples))), ErrSingleClass), ShouldBeTrue)
	})

	Convey("A cancelled context stops training", t, func() {
		samples, labels := syntheticSamples(60, 3)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		So(errors.Is(smallPipeline().Fit(cctx, samples, labels), context.Canceled), ShouldBeTrue)
	})

	Convey("An unfitted pipeline refuses to predict or encode", t, func() {
		_, err := smallPipeline().PredictProba(sample{})
		So(errors.Is(err, ErrNotFitted), ShouldBeTrue)
		_, err = smallPipeline().Marshal()
		So(errors.Is(err, ErrNotFitted), ShouldBeTrue)
		_, err = Unmarshal([]byte(`{"config":{}}`))
		So(errors.Is(err, ErrNotFitted), ShouldBeTrue)
		_, err = Unmarshal([]byte(`not json`))
		So(err, ShouldNotBeNil)
	})
}
