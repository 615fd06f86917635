// gamefit-loadtest fires generated prediction requests at a running server
// and verifies every answer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/gamefit/internal/loadtest"
	"github.com/okian/gamefit/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests    = 10000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "gamefit-loadtest",
		Usage: "Load and contract test for a running gamefit server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "Base URL of the service"},
			&cli.StringFlag{Name: "key", Usage: "Internal API key", EnvVars: []string{"GAMEFIT_INTERNAL_API_KEY"}, Required: true},
			&cli.IntFlag{Name: "requests", Value: defaultRequests, Usage: "Number of requests to generate and submit"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * defaultWorkers, Usage: "Number of concurrent workers"},
			&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "HTTP request timeout"},
			&cli.DurationFlag{Name: "deadline", Value: defaultTestTimeout, Usage: "Overall run deadline"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Request generator seed"},
			&cli.StringFlag{Name: "output", Usage: "Write every outcome to this JSON file"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log every violation"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("verbose") {
				_ = logger.SetLevelString("debug")
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, c.Duration("deadline"))
			defer cancel()

			_, _, err := loadtest.Run(ctx, &loadtest.Config{
				BaseURL:     c.String("url"),
				APIKey:      c.String("key"),
				NumRequests: c.Int("requests"),
				Workers:     c.Int("workers"),
				Timeout:     c.Duration("timeout"),
				Seed:        c.Int64("seed"),
				OutputFile:  c.String("output"),
				Verbose:     c.Bool("verbose"),
			})
			return err
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
