package pipeline

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Forest is a bagged ensemble of trees. Its score is the mean leaf value.
type Forest struct {
	Trees []Tree `json:"trees"`
}

// Predict returns the forest's positive-class score for x.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// fitForest grows cfg.Trees trees on bootstrap resamples of x, each tree
// seeded from seed plus its index so results do not depend on scheduling.
func fitForest(ctx context.Context, x [][]float64, y []int, cfg Config, seed int64) (*Forest, error) {
	classWeight := [2]float64{1, 1}
	if cfg.BalancedClassWeight {
		classWeight = balancedWeights(y)
	}
	params := treeParams{
		maxDepth:       cfg.MaxDepth,
		minSamplesLeaf: max(cfg.MinSamplesLeaf, 1),
		maxFeatures:    maxFeatures(cfg.MaxFeatures, len(x[0])),
	}

	trees := make([]Tree, cfg.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallelism, 1))
	for t := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed + int64(t)))
			w, idx := bootstrap(len(x), y, classWeight, rng)
			trees[t] = growTree(x, y, w, idx, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Forest{Trees: trees}, nil
}

// bootstrap draws n samples with replacement and returns per-sample
// weights (draw count times class weight) plus the in-bag indices.
func bootstrap(n int, y []int, classWeight [2]float64, rng *rand.Rand) ([]float64, []int) {
	counts := make([]int, n)
	for k := 0; k < n; k++ {
		counts[rng.Intn(n)]++
	}
	w := make([]float64, n)
	idx := make([]int, 0, n)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		w[i] = float64(c) * classWeight[y[i]]
		idx = append(idx, i)
	}
	return w, idx
}

// balancedWeights gives each class n / (2 * n_class).
func balancedWeights(y []int) [2]float64 {
	var counts [2]int
	for _, v := range y {
		counts[v]++
	}
	out := [2]float64{1, 1}
	for c, n := range counts {
		if n > 0 {
			out[c] = float64(len(y)) / (2 * float64(n))
		}
	}
	return out
}

// maxFeatures resolves the per-split feature budget; zero means sqrt(d).
func maxFeatures(configured, d int) int {
	if configured > 0 {
		return min(configured, d)
	}
	return max(int(math.Sqrt(float64(d))), 1)
}
