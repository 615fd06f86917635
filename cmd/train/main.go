// gamefit-train trains, inspects and queries game success models.
//
// Usage:
//
//	gamefit-train train --data games.csv
//	gamefit-train predict --genre Action --platform PC --price 19.99 --release-year 2024 --team-size 5
//	gamefit-train inspect [--list]
//	gamefit-train report --data games.csv --out reports
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/okian/gamefit/internal/adapters/dataset"
	"github.com/okian/gamefit/internal/adapters/repository"
	app "github.com/okian/gamefit/internal/app"
	"github.com/okian/gamefit/internal/config"
	"github.com/okian/gamefit/internal/domain/pipeline"
	"github.com/okian/gamefit/internal/domain/prediction"
	"github.com/okian/gamefit/internal/domain/report"
	"github.com/okian/gamefit/internal/training"
	"github.com/okian/gamefit/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "gamefit-train",
		Usage:   "Train, inspect and query game success models",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:  out,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{config.EnvConfig},
			},
			&cli.StringFlag{
				Name:  "artifacts",
				Usage: "Artifact root directory",
			},
			&cli.StringFlag{
				Name:  "model-version",
				Usage: "Artifact version to write or read",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},

		Commands: []*cli.Command{
			trainCommand(),
			predictCommand(),
			inspectCommand(),
			reportCommand(),
		},
	}
}

// loadConfig layers global flags over the file and environment settings.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadFrom(c.Context, c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("artifacts") {
		cfg.ArtifactDir = c.String("artifacts")
	}
	if c.IsSet("model-version") {
		cfg.ModelVersion = c.String("model-version")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return cfg, nil
}

func store(cfg *config.Config) *repository.FileStore {
	return repository.NewFileStore(cfg.ArtifactDir)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// TRAIN COMMAND
// =============================================================================

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "Train a model on a catalog CSV and store the artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Catalog CSV path"},
			&cli.IntFlag{Name: "trees", Usage: "Trees per calibration fold"},
			&cli.IntFlag{Name: "max-depth", Usage: "Maximum tree depth (0 = unlimited)"},
			&cli.IntFlag{Name: "min-samples-leaf", Usage: "Minimum rows per leaf"},
			&cli.IntFlag{Name: "folds", Usage: "Calibration folds"},
			&cli.Int64Flag{Name: "seed", Usage: "Random seed"},
			&cli.Float64Flag{Name: "test-fraction", Usage: "Held-out share of each class"},
			&cli.IntFlag{Name: "reference-year", Usage: "Year release age is measured from"},
		},
		Action: runTrain,
	}
}

func runTrain(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("data") {
		cfg.DatasetPath = c.String("data")
	}
	if c.IsSet("trees") {
		cfg.Trees = c.Int("trees")
	}
	if c.IsSet("max-depth") {
		cfg.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("min-samples-leaf") {
		cfg.MinSamplesLeaf = c.Int("min-samples-leaf")
	}
	if c.IsSet("folds") {
		cfg.CalibrationFolds = c.Int("folds")
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("test-fraction") {
		cfg.TestFraction = c.Float64("test-fraction")
	}
	if c.IsSet("reference-year") {
		cfg.ReferenceYear = c.Int("reference-year")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := []training.Option{
		training.WithStore(store(cfg)),
		training.WithModelVersion(cfg.ModelVersion),
		training.WithTestFraction(cfg.TestFraction),
		training.WithSeed(cfg.Seed),
		training.WithLogger(logger.Named("training")),
		training.WithPipelineOptions(
			pipeline.WithTrees(cfg.Trees),
			pipeline.WithMaxDepth(cfg.MaxDepth),
			pipeline.WithMinSamplesLeaf(cfg.MinSamplesLeaf),
			pipeline.WithFolds(cfg.CalibrationFolds),
			pipeline.WithSeed(cfg.Seed),
		),
	}
	if cfg.ReferenceYear > 0 {
		opts = append(opts, training.WithReferenceYear(cfg.ReferenceYear))
	}

	rep, err := training.New(opts...).RunFile(c.Context, cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "run:            %s\n", rep.RunID)
	fmt.Fprintf(w, "model version:  %s\n", rep.Metadata.ModelVersion)
	fmt.Fprintf(w, "records:        %d (train %d, test %d)\n", rep.Records, len(rep.Split.Train), len(rep.Split.Test))
	fmt.Fprintf(w, "label policy:   %s\n", rep.Label.Policy)
	fmt.Fprintf(w, "threshold:      %.4f\n", rep.Label.Threshold)
	fmt.Fprintf(w, "positive rate:  %.2f%%\n", rep.Label.PositiveRate()*100)
	fmt.Fprintf(w, "accuracy:       %.4f\n", rep.Accuracy)
	if math.IsNaN(rep.ROCAUC) {
		fmt.Fprintln(w, "roc auc:        n/a")
	} else {
		fmt.Fprintf(w, "roc auc:        %.4f\n", rep.ROCAUC)
	}
	fmt.Fprintf(w, "artifact:       %s\n", filepath.Join(cfg.ArtifactDir, rep.Metadata.ModelVersion))
	return nil
}

// =============================================================================
// PREDICT COMMAND
// =============================================================================

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Score one game concept against a stored model",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Required: true, Usage: "Primary genre"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Value: "PC", Usage: "Target platform"},
			&cli.Float64Flag{Name: "price", Usage: "Launch price"},
			&cli.IntFlag{Name: "release-year", Required: true, Usage: "Planned release year"},
			&cli.BoolFlag{Name: "multiplayer", Usage: "Game has multiplayer"},
			&cli.IntFlag{Name: "team-size", Value: 1, Usage: "Number of developers"},
		},
		Action: runPredict,
	}
}

func runPredict(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc := app.New(app.WithCacheSize(0), app.WithLogger(logger.Named("predict")))
	if err := svc.Load(c.Context, store(cfg), cfg.ModelVersion); err != nil {
		return err
	}
	resp, err := svc.Predict(c.Context, prediction.Request{
		Genre:         c.String("genre"),
		Platform:      c.String("platform"),
		Price:         c.Float64("price"),
		ReleaseYear:   c.Int("release-year"),
		IsMultiplayer: c.Bool("multiplayer"),
		TeamSize:      c.Int("team-size"),
	})
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, resp)
}

// =============================================================================
// INSPECT COMMAND
// =============================================================================

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Print stored model metadata",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "List stored versions instead"},
		},
		Action: runInspect,
	}
}

func runInspect(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s := store(cfg)
	if c.Bool("list") {
		versions, err := s.Versions(c.Context)
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Fprintln(c.App.Writer, v)
		}
		return nil
	}
	a, err := s.Load(c.Context, cfg.ModelVersion)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, a.Metadata)
}

// =============================================================================
// REPORT COMMAND
// =============================================================================

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write genre, category and tag frequency tables",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Catalog CSV path"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "Output directory"},
			&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "genres, categories or tags (default all)"},
		},
		Action: runReport,
	}
}

func runReport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("data") {
		cfg.DatasetPath = c.String("data")
	}

	fields := report.Fields()
	if names := c.StringSlice("field"); len(names) > 0 {
		fields = fields[:0]
		for _, n := range names {
			f, err := report.ParseField(n)
			if err != nil {
				return err
			}
			fields = append(fields, f)
		}
	}

	records, err := dataset.ReadFile(c.Context, cfg.DatasetPath)
	if err != nil {
		return err
	}
	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "games: %d\n", len(records))
	for _, f := range fields {
		for _, d := range []report.Distribution{report.Primary(records, f), report.All(records, f)} {
			path := filepath.Join(outDir, d.FileName())
			if err := writeDistribution(path, d); err != nil {
				return err
			}
			fmt.Fprintf(w, "%-10s %-7s unique=%d assignments=%d -> %s\n", f, d.Mode, len(d.Entries), d.Assignments, path)
		}
		s := report.Describe(report.PerGame(records, f))
		fmt.Fprintf(w, "%-10s per game mean=%.2f std=%.2f min=%.0f q25=%.0f q50=%.0f q75=%.0f max=%.0f\n",
			f, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max)
	}
	return nil
}

func writeDistribution(path string, d report.Distribution) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := d.WriteCSV(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
