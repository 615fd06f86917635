package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
)

// Sigmoid maps a raw score f to 1 / (1 + exp(A*f + B)).
type Sigmoid struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Apply calibrates one score.
func (s Sigmoid) Apply(f float64) float64 {
	return 1 / (1 + math.Exp(s.A*f+s.B))
}

// FitSigmoid fits Platt scaling on held-out scores. Targets are smoothed to
// (N+ + 1) / (N+ + 2) and 1 / (N- + 2) to avoid overfitting small folds.
func FitSigmoid(scores []float64, labels []int) (Sigmoid, error) {
	var nPos, nNeg float64
	for _, y := range labels {
		if y == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	hi := (nPos + 1) / (nPos + 2)
	lo := 1 / (nNeg + 2)
	target := make([]float64, len(labels))
	for i, y := range labels {
		if y == 1 {
			target[i] = hi
		} else {
			target[i] = lo
		}
	}

	problem := optimize.Problem{
		Func: func(ab []float64) float64 {
			var loss float64
			for i, f := range scores {
				z := ab[0]*f + ab[1]
				loss += softplus(z) - (1-target[i])*z
			}
			return loss
		},
		Grad: func(grad, ab []float64) {
			grad[0], grad[1] = 0, 0
			for i, f := range scores {
				p := 1 / (1 + math.Exp(ab[0]*f+ab[1]))
				d := target[i] - p
				grad[0] += d * f
				grad[1] += d
			}
		},
	}
	init := []float64{0, math.Log((nNeg + 1) / (nPos + 1))}
	res, err := optimize.Minimize(problem, init, nil, &optimize.BFGS{})
	if res == nil {
		return Sigmoid{}, fmt.Errorf("%w: %v", ErrCalibrationFailed, err)
	}
	ab := res.X
	if len(ab) != 2 || math.IsNaN(ab[0]) || math.IsNaN(ab[1]) || math.IsInf(ab[0], 0) || math.IsInf(ab[1], 0) {
		return Sigmoid{}, fmt.Errorf("%w: non-finite parameters", ErrCalibrationFailed)
	}
	return Sigmoid{A: ab[0], B: ab[1]}, nil
}

// softplus is log(1 + exp(z)) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

// CalibratedFold pairs a forest with the sigmoid fitted on its held-out fold.
type CalibratedFold struct {
	Forest  *Forest `json:"forest"`
	Sigmoid Sigmoid `json:"sigmoid"`
}

// Predict returns the calibrated probability for x.
func (c *CalibratedFold) Predict(x []float64) float64 {
	return c.Sigmoid.Apply(c.Forest.Predict(x))
}

// CalibratedClassifier averages the calibrated outputs of its folds.
type CalibratedClassifier struct {
	Folds []CalibratedFold `json:"folds"`
}

// Predict returns the mean calibrated probability.
func (c *CalibratedClassifier) Predict(x []float64) float64 {
	var sum float64
	for i := range c.Folds {
		sum += c.Folds[i].Predict(x)
	}
	return sum / float64(len(c.Folds))
}

func (c *CalibratedClassifier) validate(width int) error {
	for i := range c.Folds {
		f := c.Folds[i].Forest
		if f == nil || len(f.Trees) == 0 {
			return fmt.Errorf("fold %d has no trees", i)
		}
		for t := range f.Trees {
			if err := f.Trees[t].validate(width); err != nil {
				return fmt.Errorf("fold %d tree %d: %w", i, t, err)
			}
		}
	}
	return nil
}

// fitCalibrated trains one forest per stratified fold on the remaining
// folds and calibrates it on the held-out one.
func fitCalibrated(ctx context.Context, x [][]float64, y []int, cfg Config) (*CalibratedClassifier, error) {
	k := max(cfg.Folds, 2)
	assign, err := stratifiedFolds(y, k, cfg.Seed)
	if err != nil {
		return nil, err
	}

	out := &CalibratedClassifier{Folds: make([]CalibratedFold, k)}
	for fold := 0; fold < k; fold++ {
		var trainX, heldX [][]float64
		var trainY, heldY []int
		for i, a := range assign {
			if a == fold {
				heldX, heldY = append(heldX, x[i]), append(heldY, y[i])
			} else {
				trainX, trainY = append(trainX, x[i]), append(trainY, y[i])
			}
		}
		forest, err := fitForest(ctx, trainX, trainY, cfg, foldSeed(cfg.Seed, fold))
		if err != nil {
			return nil, err
		}
		scores := make([]float64, len(heldX))
		for i, row := range heldX {
			scores[i] = forest.Predict(row)
		}
		sig, err := FitSigmoid(scores, heldY)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		out.Folds[fold] = CalibratedFold{Forest: forest, Sigmoid: sig}
	}
	return out, nil
}

// stratifiedFolds shuffles each class with seed and deals its members
// round-robin across k folds.
func stratifiedFolds(y []int, k int, seed int64) ([]int, error) {
	var members [2][]int
	for i, v := range y {
		members[v] = append(members[v], i)
	}
	for c := range members {
		if len(members[c]) < k {
			return nil, fmt.Errorf("%w: class %d has %d samples, need %d", ErrTooFewSamples, c, len(members[c]), k)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	assign := make([]int, len(y))
	for c := range members {
		idx := members[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for pos, i := range idx {
			assign[i] = pos % k
		}
	}
	return assign, nil
}

func foldSeed(seed int64, fold int) int64 {
	return seed + int64(fold)*1_000_003
}
