package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/gamefit/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ModelVersion, convey.ShouldEqual, "v1")
				convey.So(cfg.Trees, convey.ShouldEqual, 100)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
				convey.So(cfg.MetricsInterval, convey.ShouldEqual, 10*time.Second)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GAMEFIT_ADDR", ":8080")
			_ = os.Setenv("GAMEFIT_INTERNAL_API_KEY", "s3cret")
			_ = os.Setenv("GAMEFIT_MODEL_VERSION", "2024.06")
			_ = os.Setenv("GAMEFIT_PREDICTION_CACHE_SIZE", "0")
			_ = os.Setenv("GAMEFIT_TEST_FRACTION", "0.25")
			_ = os.Setenv("GAMEFIT_SEED", "7")
			_ = os.Setenv("GAMEFIT_METRICS_ENABLED", "false")
			_ = os.Setenv("GAMEFIT_METRICS_INTERVAL", "30s")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.InternalAPIKey, convey.ShouldEqual, "s3cret")
				convey.So(cfg.ModelVersion, convey.ShouldEqual, "2024.06")
				convey.So(cfg.PredictionCacheSize, convey.ShouldEqual, 0)
				convey.So(cfg.TestFraction, convey.ShouldEqual, 0.25)
				convey.So(cfg.Seed, convey.ShouldEqual, 7)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.ValidateServing(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
artifact_dir: "/var/lib/gamefit"
trees: 250
max_depth: 12
calibration_folds: 3
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAMEFIT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep defaults for the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ArtifactDir, convey.ShouldEqual, "/var/lib/gamefit")
				convey.So(cfg.Trees, convey.ShouldEqual, 250)
				convey.So(cfg.MaxDepth, convey.ShouldEqual, 12)
				convey.So(cfg.CalibrationFolds, convey.ShouldEqual, 3)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ModelVersion, convey.ShouldEqual, "v1")
				convey.So(cfg.MinSamplesLeaf, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
trees: 250
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAMEFIT_CONFIG", tmpFile)
			_ = os.Setenv("GAMEFIT_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.Trees, convey.ShouldEqual, 250)    // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAMEFIT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GAMEFIT_CONFIG", "/non/existent/gamefit.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("GAMEFIT_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GAMEFIT_TREES", "many")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an out of range fraction", func() {
			_ = os.Setenv("GAMEFIT_TEST_FRACTION", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// clearConfigEnvVars clears all config-related environment variables.
func clearConfigEnvVars() {
	envVars := []string{
		"GAMEFIT_CONFIG",
		"GAMEFIT_ADDR",
		"GAMEFIT_INTERNAL_API_KEY",
		"GAMEFIT_MODEL_VERSION",
		"GAMEFIT_PREDICTION_CACHE_SIZE",
		"GAMEFIT_TEST_FRACTION",
		"GAMEFIT_SEED",
		"GAMEFIT_TREES",
		"GAMEFIT_METRICS_ENABLED",
		"GAMEFIT_METRICS_INTERVAL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

// createTempConfigFile creates a temporary YAML config file with the given content.
func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gamefit-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func TestConfigLoadFrom(t *testing.T) {
	convey.Convey("Given an explicit config path", t, func() {
		clearConfigEnvVars()
		tmpFile := createTempConfigFile("model_version: \"2025.01\"\n")
		defer func() { _ = os.Remove(tmpFile) }()

		cfg, err := config.LoadFrom(context.Background(), tmpFile)

		convey.Convey("Then the file is read without GAMEFIT_CONFIG", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.ModelVersion, convey.ShouldEqual, "2025.01")
		})
	})
}
