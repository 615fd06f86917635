package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/gamefit/internal/domain/stats"
)

// missingCategory fills a categorical column that had no value at all
// during fit.
const missingCategory = "missing"

// Source exposes one sample's features by name.
type Source interface {
	NumericValue(name string) float64
	CategoricalValue(name string) string
}

// Row is a sample projected onto the pipeline's feature lists. NaN marks a
// missing numeric value and "" a missing category.
type Row struct {
	Numeric     []float64
	Categorical []string
}

// Preprocessor imputes, scales and one-hot encodes rows.
type Preprocessor struct {
	Medians    []float64  `json:"medians"`
	Means      []float64  `json:"means"`
	Scales     []float64  `json:"scales"`
	Fill       []string   `json:"fill"`
	Categories [][]string `json:"categories"`
}

// FitPreprocessor learns imputation values, scaling moments and category
// vocabularies from rows.
func FitPreprocessor(rows []Row, numeric, categorical int) *Preprocessor {
	p := &Preprocessor{
		Medians:    make([]float64, numeric),
		Means:      make([]float64, numeric),
		Scales:     make([]float64, numeric),
		Fill:       make([]string, categorical),
		Categories: make([][]string, categorical),
	}

	col := make([]float64, len(rows))
	for j := 0; j < numeric; j++ {
		for i := range rows {
			col[i] = rows[i].Numeric[j]
		}
		med := stats.Median(col)
		if math.IsNaN(med) {
			med = 0
		}
		imputed := make([]float64, len(rows))
		for i, v := range col {
			if math.IsNaN(v) {
				v = med
			}
			imputed[i] = v
		}
		mean, std := stats.PopMeanStdDev(imputed)
		if math.IsNaN(mean) {
			mean = 0
		}
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		p.Medians[j], p.Means[j], p.Scales[j] = med, mean, std
	}

	for j := 0; j < categorical; j++ {
		counts := make(map[string]int)
		for i := range rows {
			if v := rows[i].Categorical[j]; v != "" {
				counts[v]++
			}
		}
		p.Fill[j] = mostFrequent(counts)
		if len(counts) == 0 {
			counts[p.Fill[j]] = 0
		}
		cats := make([]string, 0, len(counts))
		for c := range counts {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		p.Categories[j] = cats
	}
	return p
}

// Width returns the length of a transformed row.
func (p *Preprocessor) Width() int {
	w := len(p.Medians)
	for _, c := range p.Categories {
		w += len(c)
	}
	return w
}

// validate checks that a decoded preprocessor can encode rows with the
// given number of numeric and categorical features.
func (p *Preprocessor) validate(numeric, categorical int) error {
	if len(p.Medians) != numeric || len(p.Means) != numeric || len(p.Scales) != numeric {
		return fmt.Errorf("%w: numeric moments do not match %d features", ErrMalformed, numeric)
	}
	if len(p.Fill) != categorical || len(p.Categories) != categorical {
		return fmt.Errorf("%w: categorical vocabularies do not match %d features", ErrMalformed, categorical)
	}
	for j := 0; j < numeric; j++ {
		if math.IsNaN(p.Medians[j]) || math.IsInf(p.Medians[j], 0) ||
			math.IsNaN(p.Means[j]) || math.IsInf(p.Means[j], 0) {
			return fmt.Errorf("%w: numeric feature %d has a non-finite moment", ErrMalformed, j)
		}
		if s := p.Scales[j]; s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: numeric feature %d has scale %v", ErrMalformed, j, s)
		}
	}
	for j, cats := range p.Categories {
		if !sort.StringsAreSorted(cats) {
			return fmt.Errorf("%w: categories of feature %d are not sorted", ErrMalformed, j)
		}
	}
	return nil
}

// Transform encodes one row. A category not seen during fit encodes as an
// all-zero block.
func (p *Preprocessor) Transform(r Row) []float64 {
	out := make([]float64, p.Width())
	for j, v := range r.Numeric {
		if math.IsNaN(v) {
			v = p.Medians[j]
		}
		out[j] = (v - p.Means[j]) / p.Scales[j]
	}
	off := len(p.Medians)
	for j, v := range r.Categorical {
		if v == "" {
			v = p.Fill[j]
		}
		cats := p.Categories[j]
		if k := sort.SearchStrings(cats, v); k < len(cats) && cats[k] == v {
			out[off+k] = 1
		}
		off += len(cats)
	}
	return out
}

// mostFrequent picks the most common value; ties go to the lexically
// smallest.
func mostFrequent(counts map[string]int) string {
	best, bestN := "", -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	if best == "" {
		return missingCategory
	}
	return best
}
