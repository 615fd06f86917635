// Package stats holds the small set of order statistics the label and
// pipeline stages must reproduce exactly: average-tie percentile ranks,
// linearly interpolated quantiles, medians and ROC-AUC.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// PercentRank returns the percentile rank of every value in x, in input order.
// Ranks start at 1, ties receive the mean rank of their group and the result
// is rank/len(x), so the largest unique value maps to exactly 1.
func PercentRank(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	for start := 0; start < n; {
		end := start + 1
		for end < n && x[idx[end]] == x[idx[start]] {
			end++
		}
		// positions start..end-1 hold ranks start+1..end
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			out[idx[k]] = avg / float64(n)
		}
		start = end
	}
	return out
}

// Quantile returns the p-quantile of x using linear interpolation between the
// two closest ranks at position (n-1)*p. x need not be sorted and is not
// modified. NaN values are ignored; the result is NaN when none remain.
//
// gonum's stat.Quantile(LinInterp) interpolates the empirical CDF instead,
// which yields a different threshold for the same data.
func Quantile(p float64, x []float64) float64 {
	sorted := finiteSorted(x)
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	frac := pos - lo
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// Median is Quantile(0.5, x).
func Median(x []float64) float64 {
	return Quantile(0.5, x)
}

// PopMeanStdDev returns the mean and population standard deviation of the
// non-NaN values in x.
func PopMeanStdDev(x []float64) (mean, std float64) {
	vals := finiteSorted(x)
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(vals, nil)
}

// ROCAUC returns the area under the ROC curve of scores against labels.
// It is NaN when labels contain a single class.
func ROCAUC(scores []float64, labels []int) float64 {
	if len(scores) != len(labels) || len(scores) == 0 {
		return math.NaN()
	}
	y := make([]float64, len(scores))
	classes := make([]bool, len(labels))
	var pos int
	for i := range scores {
		y[i] = scores[i]
		classes[i] = labels[i] == 1
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return math.NaN()
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func finiteSorted(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
