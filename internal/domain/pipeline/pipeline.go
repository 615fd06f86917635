// Package pipeline turns named features into a calibrated success
// probability: impute, scale and one-hot encode, then a bagged tree
// ensemble calibrated with a per-fold sigmoid.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
)

// Default hyper-parameters.
const (
	DefaultTrees          = 100
	DefaultMinSamplesLeaf = 1
	DefaultFolds          = 5
	DefaultSeed           = 42
)

// Config holds the pipeline's feature lists and hyper-parameters.
type Config struct {
	NumericFeatures     []string `json:"numeric_features"`
	CategoricalFeatures []string `json:"categorical_features"`
	Trees               int      `json:"trees"`
	MaxDepth            int      `json:"max_depth"`
	MinSamplesLeaf      int      `json:"min_samples_leaf"`
	MaxFeatures         int      `json:"max_features"`
	Folds               int      `json:"folds"`
	Seed                int64    `json:"seed"`
	BalancedClassWeight bool     `json:"balanced_class_weight"`
	Parallelism         int      `json:"-"`
}

// Option configures a Pipeline.
type Option func(*Config)

// WithNumeric sets the numeric feature columns.
func WithNumeric(names ...string) Option {
	return func(c *Config) { c.NumericFeatures = append([]string(nil), names...) }
}

// WithCategorical sets the categorical feature columns.
func WithCategorical(names ...string) Option {
	return func(c *Config) { c.CategoricalFeatures = append([]string(nil), names...) }
}

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Trees = n
		}
	}
}

// WithMaxDepth limits tree depth; zero means unlimited.
func WithMaxDepth(d int) Option {
	return func(c *Config) {
		if d >= 0 {
			c.MaxDepth = d
		}
	}
}

// WithMinSamplesLeaf sets the minimum number of samples per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MinSamplesLeaf = n
		}
	}
}

// WithMaxFeatures sets the per-split feature budget; zero means sqrt(d).
func WithMaxFeatures(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MaxFeatures = n
		}
	}
}

// WithFolds sets the number of calibration folds.
func WithFolds(k int) Option {
	return func(c *Config) {
		if k >= 2 {
			c.Folds = k
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed int64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithBalancedClassWeight toggles inverse-frequency class weights.
func WithBalancedClassWeight(on bool) Option {
	return func(c *Config) { c.BalancedClassWeight = on }
}

// WithParallelism bounds concurrent tree growth.
func WithParallelism(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Parallelism = n
		}
	}
}

// Pipeline is the fitted preprocessing and classification chain. A fitted
// Pipeline is read-only and safe for concurrent PredictProba calls.
type Pipeline struct {
	Config       Config                `json:"config"`
	Preprocessor *Preprocessor         `json:"preprocessor,omitempty"`
	Classifier   *CalibratedClassifier `json:"classifier,omitempty"`
}

// New creates an unfitted pipeline.
func New(opts ...Option) *Pipeline {
	cfg := Config{
		Trees:               DefaultTrees,
		MinSamplesLeaf:      DefaultMinSamplesLeaf,
		Folds:               DefaultFolds,
		Seed:                DefaultSeed,
		BalancedClassWeight: true,
		Parallelism:         runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pipeline{Config: cfg}
}

// Fitted reports whether Fit has completed.
func (p *Pipeline) Fitted() bool {
	return p != nil && p.Preprocessor != nil && p.Classifier != nil && len(p.Classifier.Folds) > 0
}

// Features lists the input columns, numeric first.
func (p *Pipeline) Features() []string {
	out := make([]string, 0, len(p.Config.NumericFeatures)+len(p.Config.CategoricalFeatures))
	out = append(out, p.Config.NumericFeatures...)
	return append(out, p.Config.CategoricalFeatures...)
}

// Fit learns the preprocessing and calibrated ensemble from samples with
// binary labels.
func (p *Pipeline) Fit(ctx context.Context, samples []Source, labels []int) error {
	if len(samples) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(samples) != len(labels) {
		return fmt.Errorf("%w: %d samples, %d labels", ErrLengthMismatch, len(samples), len(labels))
	}
	var seen [2]bool
	for i, y := range labels {
		if y != 0 && y != 1 {
			return fmt.Errorf("label %d at index %d is not binary", y, i)
		}
		seen[y] = true
	}
	if !seen[0] || !seen[1] {
		return ErrSingleClass
	}

	rows := make([]Row, len(samples))
	for i, s := range samples {
		rows[i] = p.row(s)
	}
	pre := FitPreprocessor(rows, len(p.Config.NumericFeatures), len(p.Config.CategoricalFeatures))
	x := make([][]float64, len(rows))
	for i, r := range rows {
		x[i] = pre.Transform(r)
	}

	clf, err := fitCalibrated(ctx, x, labels, p.Config)
	if err != nil {
		return err
	}
	p.Preprocessor, p.Classifier = pre, clf
	return nil
}

// PredictProba returns the calibrated positive-class probability.
func (p *Pipeline) PredictProba(s Source) (float64, error) {
	if !p.Fitted() {
		return 0, ErrNotFitted
	}
	return p.Classifier.Predict(p.Preprocessor.Transform(p.row(s))), nil
}

func (p *Pipeline) row(s Source) Row {
	r := Row{
		Numeric:     make([]float64, len(p.Config.NumericFeatures)),
		Categorical: make([]string, len(p.Config.CategoricalFeatures)),
	}
	for j, name := range p.Config.NumericFeatures {
		r.Numeric[j] = s.NumericValue(name)
	}
	for j, name := range p.Config.CategoricalFeatures {
		r.Categorical[j] = s.CategoricalValue(name)
	}
	return r
}

// Marshal encodes the pipeline as JSON.
func (p *Pipeline) Marshal() ([]byte, error) {
	if !p.Fitted() {
		return nil, ErrNotFitted
	}
	return json.Marshal(p)
}

// Unmarshal decodes a fitted pipeline.
func Unmarshal(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if !p.Fitted() {
		return nil, ErrNotFitted
	}
	if err := p.Preprocessor.validate(len(p.Config.NumericFeatures), len(p.Config.CategoricalFeatures)); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if err := p.Classifier.validate(p.Preprocessor.Width()); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	p.Config.Parallelism = runtime.GOMAXPROCS(0)
	return &p, nil
}
