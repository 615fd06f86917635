// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and GAMEFIT_* environment variables on top.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration shared by the server and the
// training CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ArtifactDir is the root under which model versions are stored.
	ArtifactDir string `koanf:"artifact_dir"`

	// ModelVersion names the artifact to train or serve.
	ModelVersion string `koanf:"model_version"`

	// InternalAPIKey is the shared secret expected in X-Internal-Key.
	InternalAPIKey string `koanf:"internal_api_key"`

	// MetricsEnabled switches Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsInterval is how often system gauges are sampled, e.g. "10s".
	MetricsInterval time.Duration `koanf:"metrics_interval"`

	// PredictionCacheSize bounds the response cache; 0 disables it.
	PredictionCacheSize int `koanf:"prediction_cache_size"`

	// DatasetPath is the training CSV.
	DatasetPath string `koanf:"dataset_path"`

	// ReferenceYear anchors game age; 0 keeps the built-in reference year.
	ReferenceYear int `koanf:"reference_year"`

	// Trees is the bagging ensemble size per calibration fold.
	Trees int `koanf:"trees"`

	// MaxDepth caps tree depth; 0 grows until leaves are pure.
	MaxDepth int `koanf:"max_depth"`

	// MinSamplesLeaf is the smallest number of rows in a leaf.
	MinSamplesLeaf int `koanf:"min_samples_leaf"`

	// CalibrationFolds is the number of stratified folds used for Platt scaling.
	CalibrationFolds int `koanf:"calibration_folds"`

	// TestFraction is the held-out share of every class.
	TestFraction float64 `koanf:"test_fraction"`

	// Seed drives every random choice during training.
	Seed int64 `koanf:"seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		ArtifactDir:         "artifacts",
		ModelVersion:        "v1",
		MetricsEnabled:      true,
		MetricsInterval:     10 * time.Second,
		PredictionCacheSize: 4096,
		DatasetPath:         "data/games.csv",
		Trees:               100,
		MinSamplesLeaf:      1,
		CalibrationFolds:    5,
		TestFraction:        0.2,
		Seed:                42,
	}
}

// Validate checks settings shared by every entry point.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelVersion) == "":
		return fmt.Errorf("%w: model_version must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ArtifactDir) == "":
		return fmt.Errorf("%w: artifact_dir must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.MetricsInterval <= 0:
		return fmt.Errorf("%w: metrics_interval must be positive", ErrInvalidConfig)
	case c.PredictionCacheSize < 0:
		return fmt.Errorf("%w: prediction_cache_size must not be negative", ErrInvalidConfig)
	case c.ReferenceYear < 0:
		return fmt.Errorf("%w: reference_year must not be negative", ErrInvalidConfig)
	case c.Trees < 1:
		return fmt.Errorf("%w: trees must be positive", ErrInvalidConfig)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max_depth must not be negative", ErrInvalidConfig)
	case c.MinSamplesLeaf < 1:
		return fmt.Errorf("%w: min_samples_leaf must be positive", ErrInvalidConfig)
	case c.CalibrationFolds < 2:
		return fmt.Errorf("%w: calibration_folds must be at least 2", ErrInvalidConfig)
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test_fraction must be in (0,1)", ErrInvalidConfig)
	}
	return nil
}

// ValidateServing additionally requires the settings the HTTP server needs.
func (c *Config) ValidateServing() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.InternalAPIKey) == "" {
		return fmt.Errorf("%w: internal_api_key must be set", ErrInvalidConfig)
	}
	return nil
}
