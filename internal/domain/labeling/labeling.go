// Package labeling turns review counts into a genre-relative success label.
//
// Scoring is relative: each record's review volume and rating are ranked
// only against records of the same genre. Thresholding is global: the label
// cut is the dataset-wide 75th percentile of the composite score. Changing
// either half changes what "success" means.
package labeling

import (
	"fmt"
	"math"

	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/stats"
)

// PolicyGenreRelativeQ75 identifies the labeling policy implemented here. It
// is written into artifact metadata.
const PolicyGenreRelativeQ75 = "genre-relative-q75/v1"

// Fixed design constants.
const (
	ReviewVolumeWeight = 0.6
	RatingWeight       = 0.4
	ThresholdQuantile  = 0.75
)

// Result summarizes one labeling pass.
type Result struct {
	Policy    string
	Threshold float64
	Positives int
	Total     int
}

// PositiveRate returns the fraction of records labeled successful.
func (r Result) PositiveRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Positives) / float64(r.Total)
}

// Score computes the composite success score and binary label of every
// record. The output is index-aligned with the input.
func Score(records []model.NormalizedRecord) ([]model.ScoredRecord, Result) {
	out := make([]model.ScoredRecord, len(records))
	for i, r := range records {
		total := r.PositiveReviews + r.NegativeReviews
		out[i] = model.ScoredRecord{
			NormalizedRecord: r,
			TotalReviews:     total,
			ReviewRatio:      float64(r.PositiveReviews) / float64(total+1),
			LogReviews:       math.Log1p(float64(total)),
		}
	}

	for _, idx := range GroupByGenre(records) {
		volume := make([]float64, len(idx))
		rating := make([]float64, len(idx))
		for k, i := range idx {
			volume[k] = out[i].LogReviews
			rating[k] = out[i].ReviewRatio
		}
		volumePct := stats.PercentRank(volume)
		ratingPct := stats.PercentRank(rating)
		for k, i := range idx {
			out[i].GenreReviewPct = volumePct[k]
			out[i].GenreRatingPct = ratingPct[k]
			out[i].SuccessScore = ReviewVolumeWeight*volumePct[k] + RatingWeight*ratingPct[k]
		}
	}

	res := Result{Policy: PolicyGenreRelativeQ75, Total: len(out)}
	if len(out) == 0 {
		res.Threshold = math.NaN()
		return out, res
	}

	res.Threshold = Threshold(out)
	for i := range out {
		if out[i].SuccessScore >= res.Threshold {
			out[i].SuccessBinary = 1
			res.Positives++
		}
	}
	return out, res
}

// Threshold returns the dataset-wide cut applied to composite scores.
func Threshold(records []model.ScoredRecord) float64 {
	scores := make([]float64, len(records))
	for i := range records {
		scores[i] = records[i].SuccessScore
	}
	return stats.Quantile(ThresholdQuantile, scores)
}

// GroupByGenre returns record indices partitioned by genre, in first-seen
// genre order.
func GroupByGenre(records []model.NormalizedRecord) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, r := range records {
		g, ok := pos[r.Genre]
		if !ok {
			g = len(groups)
			pos[r.Genre] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// CheckClasses returns ErrSingleClass unless both labels occur.
func CheckClasses(records []model.ScoredRecord) error {
	var pos int
	for i := range records {
		pos += records[i].SuccessBinary
	}
	if pos == 0 || pos == len(records) {
		return fmt.Errorf("%d records, %d positive: %w", len(records), pos, ErrSingleClass)
	}
	return nil
}
