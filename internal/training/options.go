package training

import (
	"time"

	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/pipeline"
	"github.com/okian/gamefit/pkg/logger"
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithStore sets the artifact destination.
func WithStore(store repository.Store) Option {
	return func(t *Trainer) {
		if store != nil {
			t.store = store
		}
	}
}

// WithModelVersion sets the version key artifacts are saved under.
func WithModelVersion(version string) Option {
	return func(t *Trainer) {
		if version != "" {
			t.version = version
		}
	}
}

// WithReferenceYear sets the year recency is measured from.
func WithReferenceYear(year int) Option {
	return func(t *Trainer) {
		if year > 0 {
			t.referenceYear = year
		}
	}
}

// WithTestFraction sets the held-out share of each class.
func WithTestFraction(f float64) Option {
	return func(t *Trainer) {
		if f > 0 && f < 1 {
			t.testFraction = f
		}
	}
}

// WithSeed sets the seed for the split and the ensemble.
func WithSeed(seed int64) Option {
	return func(t *Trainer) { t.seed = seed }
}

// WithPipelineOptions appends pipeline hyper-parameter options.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(t *Trainer) { t.pipelineOpts = append(t.pipelineOpts, opts...) }
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides the time source stamped into metadata.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}
