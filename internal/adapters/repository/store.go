// Package repository persists versioned model artifacts.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/gamefit/internal/domain/pipeline"
)

// ModelType names the estimator family recorded in metadata.
const ModelType = "CalibratedBaggedTrees"

// Scores holds held-out evaluation results. ROCAUC is nil when the test
// split held a single class.
type Scores struct {
	Accuracy float64  `json:"accuracy"`
	ROCAUC   *float64 `json:"roc_auc,omitempty"`
}

// Metadata describes a trained artifact.
type Metadata struct {
	ModelVersion   string    `json:"model_version"`
	Features       []string  `json:"features"`
	Approximated   []string  `json:"approximated_features,omitempty"`
	ModelType      string    `json:"model_type"`
	LabelPolicy    string    `json:"label_policy"`
	LabelThreshold float64   `json:"label_threshold"`
	PositiveRate   float64   `json:"positive_rate"`
	ReferenceYear  int       `json:"reference_year"`
	RunID          string    `json:"run_id"`
	TrainedAt      time.Time `json:"trained_at"`
	TrainSize      int       `json:"train_size"`
	TestSize       int       `json:"test_size"`
	Scores         Scores    `json:"metrics"`
}

// Artifact is a fitted pipeline plus its metadata.
type Artifact struct {
	Pipeline *pipeline.Pipeline
	Metadata Metadata
}

// Store provides read/write access to versioned artifacts.
type Store interface {
	// Save persists a, replacing any artifact with the same version.
	Save(ctx context.Context, a *Artifact) error

	// Load returns the artifact for version.
	// Returns ErrNotFound if the version is unknown and ErrCorrupt if it
	// cannot be decoded.
	Load(ctx context.Context, version string) (*Artifact, error)

	// Versions lists stored versions in ascending order.
	Versions(ctx context.Context) ([]string, error)
}

// ValidateVersion rejects versions that cannot be used as a single path
// element.
func ValidateVersion(version string) error {
	if version == "" || version == "." || version == ".." ||
		strings.ContainsAny(version, `/\`) || strings.TrimSpace(version) != version {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

func validateArtifact(a *Artifact) error {
	if a == nil || a.Pipeline == nil || !a.Pipeline.Fitted() {
		return fmt.Errorf("%w: artifact has no fitted pipeline", pipeline.ErrNotFitted)
	}
	return ValidateVersion(a.Metadata.ModelVersion)
}
