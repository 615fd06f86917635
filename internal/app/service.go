// Package service provides the prediction service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/features"
	"github.com/okian/gamefit/internal/domain/model"
	"github.com/okian/gamefit/internal/domain/prediction"
	"github.com/okian/gamefit/pkg/logger"
	"github.com/okian/gamefit/pkg/metrics"
)

// DefaultCacheSize bounds the response cache.
const DefaultCacheSize = 4096

// State is the service lifecycle state.
type State int32

// Lifecycle states. A service moves from Uninitialized to Ready once and
// never back.
const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// Service answers success predictions from one loaded artifact.
type Service struct {
	mu sync.RWMutex

	// Loaded model
	artifact *repository.Artifact
	state    atomic.Int32

	// Configuration
	cacheSize int
	cache     *lru.Cache

	// Counters
	served    atomic.Int64
	cacheHits atomic.Int64
	failures  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCacheSize sets the number of memoised responses; zero disables the
// cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs an uninitialized Service.
func New(opts ...Option) *Service {
	s := &Service{
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the artifact for version from store and moves the service to
// Ready. It succeeds at most once; a failed load leaves the service
// Uninitialized.
func (s *Service) Load(ctx context.Context, store repository.Store, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.State() == StateReady {
		return ErrAlreadyLoaded
	}

	start := time.Now()
	artifact, err := store.Load(ctx, version)
	if err != nil {
		s.logger.Error(ctx, "model load failed",
			logger.String("model_version", version),
			logger.Error(err),
		)
		return fmt.Errorf("load model %q: %w", version, err)
	}
	if s.cacheSize > 0 {
		cache, err := lru.New(s.cacheSize)
		if err != nil {
			return fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}

	s.artifact = artifact
	s.state.Store(int32(StateReady))

	meta := artifact.Metadata
	metrics.SetModelLoaded(meta.ModelVersion, meta.LabelPolicy, meta.Scores.Accuracy, time.Since(start))
	s.logger.Info(ctx, "model loaded",
		logger.String("model_version", meta.ModelVersion),
		logger.String("label_policy", meta.LabelPolicy),
		logger.String("run_id", meta.RunID),
		logger.Float64("accuracy", meta.Scores.Accuracy),
		logger.Int("cache_size", s.cacheSize),
	)
	return nil
}

// State returns the lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Ready reports whether a model is loaded.
func (s *Service) Ready() bool {
	return s.State() == StateReady
}

// Version returns the loaded model version.
func (s *Service) Version() (string, error) {
	a, err := s.loaded()
	if err != nil {
		return "", err
	}
	return a.Metadata.ModelVersion, nil
}

// Metadata returns the loaded artifact's metadata.
func (s *Service) Metadata() (repository.Metadata, error) {
	a, err := s.loaded()
	if err != nil {
		return repository.Metadata{}, err
	}
	return a.Metadata, nil
}

// Predict estimates the commercial success of the described game.
func (s *Service) Predict(ctx context.Context, req prediction.Request) (prediction.Response, error) {
	start := time.Now()
	a, err := s.loaded()
	if err != nil {
		s.fail("uninitialized")
		return prediction.Response{}, err
	}
	if err := req.Validate(); err != nil {
		s.fail("invalid_request")
		return prediction.Response{}, err
	}

	rec := features.FromRequest(req, a.Metadata.ReferenceYear)
	key := keyOf(&rec)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			resp := v.(prediction.Response)
			s.cacheHits.Add(1)
			s.served.Add(1)
			metrics.RecordCacheHit()
			metrics.RecordPrediction(string(resp.Confidence), time.Since(start))
			return resp, nil
		}
		metrics.RecordCacheMiss()
	}

	p, err := a.Pipeline.PredictProba(features.NewSource(&rec))
	if err != nil {
		s.fail("model")
		return prediction.Response{}, fmt.Errorf("predict: %w", err)
	}
	resp := prediction.NewResponse(a.Metadata.ModelVersion, p)
	if s.cache != nil {
		s.cache.Add(key, resp)
	}

	s.served.Add(1)
	metrics.RecordPrediction(string(resp.Confidence), time.Since(start))
	s.logger.Debug(ctx, "prediction served",
		logger.String("genre", rec.Genre),
		logger.String("platform", string(rec.Platform)),
		logger.Float64("probability", p),
		logger.String("confidence", string(resp.Confidence)),
	)
	return resp, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"state":       s.State().String(),
		"cacheSize":   s.cacheSize,
		"predictions": s.served.Load(),
		"cacheHits":   s.cacheHits.Load(),
		"failures":    s.failures.Load(),
	}
	if s.artifact != nil {
		meta := s.artifact.Metadata
		stats["modelVersion"] = meta.ModelVersion
		stats["labelPolicy"] = meta.LabelPolicy
		stats["trainedAt"] = meta.TrainedAt
		stats["accuracy"] = meta.Scores.Accuracy
	}
	if s.cache != nil {
		stats["cacheLength"] = s.cache.Len()
	}
	return stats
}

// loaded returns the artifact without locking. Load writes the artifact and
// cache before the state store that publishes Ready, and never again.
func (s *Service) loaded() (*repository.Artifact, error) {
	if !s.Ready() {
		return nil, ErrUninitialized
	}
	return s.artifact, nil
}

func (s *Service) fail(reason string) {
	s.failures.Add(1)
	metrics.RecordPredictionError(reason)
}

// inputKey holds exactly the values the model sees, so two requests share
// a cache entry only when their predictions are identical.
type inputKey struct {
	genre         string
	platform      model.Platform
	price         float64
	yearsSince    float64
	teamSize      int
	isMultiplayer int
}

func keyOf(rec *model.EngineeredRecord) inputKey {
	return inputKey{
		genre:         rec.Genre,
		platform:      rec.Platform,
		price:         rec.Price,
		yearsSince:    rec.YearsSinceRelease,
		teamSize:      rec.TeamSize,
		isMultiplayer: rec.IsMultiplayer,
	}
}
