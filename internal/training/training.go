// Package training builds, evaluates and persists the success classifier.
package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gamefit/internal/adapters/dataset"
	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/features"
	"github.com/okian/gamefit/internal/domain/labeling"
	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/normalize"
	"github.com/okian/gamefit/internal/domain/pipeline"
	"github.com/okian/gamefit/internal/domain/stats"
	"github.com/okian/gamefit/pkg/logger"
	"github.com/okian/gamefit/pkg/metrics"
)

// Defaults applied by New.
const (
	DefaultModelVersion = "v1"
	DefaultArtifactDir  = "artifacts"
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
	DecisionThreshold   = 0.5
)

// Report summarizes one training run.
type Report struct {
	RunID    string
	Records  int
	Label    labeling.Result
	Split    Split
	Accuracy float64
	// ROCAUC is NaN when the test split holds a single class.
	ROCAUC   float64
	Duration time.Duration
	Metadata repository.Metadata
}

// Trainer runs the offline training job.
type Trainer struct {
	store         repository.Store
	version       string
	referenceYear int
	testFraction  float64
	seed          int64
	pipelineOpts  []pipeline.Option
	logger        logger.Logger
	now           func() time.Time
}

// New constructs a Trainer. Without WithStore artifacts go to a FileStore
// under DefaultArtifactDir.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		version:       DefaultModelVersion,
		referenceYear: features.DefaultReferenceYear,
		testFraction:  DefaultTestFraction,
		seed:          DefaultSeed,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.store == nil {
		t.store = repository.NewFileStore(DefaultArtifactDir)
	}
	return t
}

// RunFile reads a CSV catalog and trains on it.
func (t *Trainer) RunFile(ctx context.Context, path string) (*Report, error) {
	raws, err := dataset.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return t.Run(ctx, raws)
}

// Run normalizes, labels and engineers raws, fits the pipeline on a
// stratified training split, evaluates it on the held-out split and saves
// the artifact under the configured version. Nothing is saved when a step
// fails.
func (t *Trainer) Run(ctx context.Context, raws []model.RawGameRecord) (report *Report, err error) {
	start := time.Now()
	log := t.log().Named("training")
	runID := uuid.NewString()
	defer func() {
		status := "success"
		if err != nil {
			status = "failed"
			metrics.RecordErrorByComponent("training", errorType(err))
		}
		metrics.RecordTrainingRun(status, time.Since(start))
	}()

	if len(raws) == 0 {
		return nil, ErrEmptyDataset
	}
	log.Info(ctx, "training started",
		logger.String("run_id", runID),
		logger.String("model_version", t.version),
		logger.Int("records", len(raws)),
	)

	scored, label := labeling.Score(normalize.All(raws))
	if err := labeling.CheckClasses(scored); err != nil {
		log.Error(ctx, "labeling produced one class; refusing to fit", logger.Error(err))
		return nil, err
	}
	metrics.UpdateTrainingDataset(label.Total, label.PositiveRate(), label.Threshold)
	log.Info(ctx, "labels assigned",
		logger.String("policy", label.Policy),
		logger.Float64("threshold", label.Threshold),
		logger.Float64("positive_rate", label.PositiveRate()),
	)

	engineered := features.Engineer(scored, features.Options{ReferenceYear: t.referenceYear})
	labels := make([]int, len(engineered))
	for i := range engineered {
		labels[i] = engineered[i].SuccessBinary
	}
	split, err := StratifiedSplit(labels, t.testFraction, t.seed)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(t.pipelineOptions()...)
	trainX, trainY := subset(engineered, labels, split.Train)
	if err := p.Fit(ctx, trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit pipeline: %w", err)
	}

	testX, testY := subset(engineered, labels, split.Test)
	accuracy, auc, err := evaluate(p, testX, testY)
	if err != nil {
		return nil, err
	}
	metrics.UpdateTrainingScores(accuracy, auc)

	meta := repository.Metadata{
		ModelVersion:   t.version,
		Features:       p.Features(),
		Approximated:   features.Approximated(),
		ModelType:      repository.ModelType,
		LabelPolicy:    label.Policy,
		LabelThreshold: label.Threshold,
		PositiveRate:   label.PositiveRate(),
		ReferenceYear:  t.referenceYear,
		RunID:          runID,
		TrainedAt:      t.now().UTC(),
		TrainSize:      len(split.Train),
		TestSize:       len(split.Test),
		Scores:         repository.Scores{Accuracy: accuracy},
	}
	if !math.IsNaN(auc) {
		meta.Scores.ROCAUC = &auc
	}
	if err := t.store.Save(ctx, &repository.Artifact{Pipeline: p, Metadata: meta}); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	report = &Report{
		RunID:    runID,
		Records:  len(raws),
		Label:    label,
		Split:    split,
		Accuracy: accuracy,
		ROCAUC:   auc,
		Duration: time.Since(start),
		Metadata: meta,
	}
	log.Info(ctx, "training finished",
		logger.String("run_id", runID),
		logger.String("model_version", t.version),
		logger.Float64("accuracy", accuracy),
		logger.Float64("roc_auc", auc),
		logger.Duration("took", report.Duration),
	)
	return report, nil
}

func (t *Trainer) pipelineOptions() []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithNumeric(model.NumericFeatures()...),
		pipeline.WithCategorical(model.CategoricalFeatures()...),
		pipeline.WithSeed(t.seed),
	}
	return append(opts, t.pipelineOpts...)
}

func (t *Trainer) log() logger.Logger {
	if t.logger == nil {
		t.logger = logger.Get()
	}
	return t.logger
}

func subset(records []model.EngineeredRecord, labels []int, idx []int) ([]pipeline.Source, []int) {
	x := make([]pipeline.Source, len(idx))
	y := make([]int, len(idx))
	for k, i := range idx {
		x[k] = features.NewSource(&records[i])
		y[k] = labels[i]
	}
	return x, y
}

// evaluate returns accuracy at DecisionThreshold and ROC-AUC.
func evaluate(p *pipeline.Pipeline, x []pipeline.Source, y []int) (float64, float64, error) {
	scores := make([]float64, len(x))
	var correct int
	for i, s := range x {
		prob, err := p.PredictProba(s)
		if err != nil {
			return 0, 0, fmt.Errorf("evaluate: %w", err)
		}
		scores[i] = prob
		predicted := 0
		if prob > DecisionThreshold {
			predicted = 1
		}
		if predicted == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x)), stats.ROCAUC(scores, y), nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrEmptyDataset):
		return "empty_dataset"
	case errors.Is(err, labeling.ErrSingleClass):
		return "single_class"
	case errors.Is(err, ErrTooFewMembers), errors.Is(err, pipeline.ErrTooFewSamples):
		return "too_few_members"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
