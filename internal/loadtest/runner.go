package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/prediction"
	"github.com/okian/gamefit/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete load test. It returns ErrViolations, with the
// stats and violations filled in, when any answer breaks the contract.
func Run(ctx context.Context, config *Config) (*Stats, []Violation, error) {
	if err := validate(config); err != nil {
		return nil, nil, err
	}
	log := logger.Named("loadtest")
	stats := &Stats{StartTime: time.Now(), Verdicts: map[prediction.Verdict]int{}}

	log.Info(ctx, "starting gamefit load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("requests", config.NumRequests),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout, config.APIKey)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config.BaseURL); err != nil {
		return nil, nil, err
	}

	// Step 2: Learn which model is served
	meta, err := fetchModel(ctx, client, config.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info(ctx, "model under test",
		logger.String("model_version", meta.ModelVersion),
		logger.String("label_policy", meta.LabelPolicy))

	// Step 3: Generate and submit requests
	cases := Generate(config.NumRequests, config.Seed)
	stats.Generated = len(cases)
	outcomes := submit(ctx, client, config, cases, stats)
	if err := ctx.Err(); err != nil {
		return stats, nil, fmt.Errorf("load test interrupted: %w", err)
	}

	// Step 4: Verify
	violations := Verify(outcomes, meta.ModelVersion)
	stats.Violations = len(violations)
	for _, o := range outcomes {
		if o.Status == StatusOK && o.Err == "" {
			stats.Verdicts[o.Response.Verdict]++
		}
	}
	if config.Verbose {
		for _, v := range violations {
			log.Warn(ctx, "contract violation", logger.String("violation", v.String()))
		}
	}

	// Step 5: Save outcomes
	if config.OutputFile != "" {
		if err := saveOutcomes(config.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if len(violations) > 0 {
		return stats, violations, fmt.Errorf("%w: %d of %d", ErrViolations, len(violations), len(outcomes))
	}
	log.Info(ctx, "load test completed successfully")
	return stats, nil, nil
}

func validate(c *Config) error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil config", ErrInvalidSetup)
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base url is empty", ErrInvalidSetup)
	case c.NumRequests < 1:
		return fmt.Errorf("%w: requests must be positive", ErrInvalidSetup)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidSetup)
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_, _ = readResponseBody(resp)

	// The service answers /healthz with Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// fetchModel reads /model to learn the served version.
func fetchModel(ctx context.Context, client *HTTPClient, baseURL string) (repository.Metadata, error) {
	var meta repository.Metadata
	resp, err := client.Get(ctx, baseURL+"/model")
	if err != nil {
		return meta, fmt.Errorf("%w: %w", ErrNoModel, err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return meta, fmt.Errorf("%w: %w", ErrNoModel, err)
	}
	if resp.StatusCode != StatusOK {
		return meta, fmt.Errorf("%w: status %d", ErrNoModel, resp.StatusCode)
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return meta, fmt.Errorf("%w: decode metadata: %w", ErrNoModel, err)
	}
	return meta, nil
}

// submit sends cases through a worker pool. Outcomes are index-aligned with
// cases.
func submit(ctx context.Context, client *HTTPClient, config *Config, cases []Case, stats *Stats) []Outcome {
	url := config.BaseURL + "/predict-success"
	outcomes := make([]Outcome, len(cases))

	var sent, succeeded, rejected, failed int64
	var lastReport atomic.Int64

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				o := send(ctx, client, url, cases[i])
				outcomes[i] = o

				atomic.AddInt64(&sent, 1)
				switch {
				case o.Err != "":
					atomic.AddInt64(&failed, 1)
				case o.Status == StatusOK:
					atomic.AddInt64(&succeeded, 1)
				case o.Status == StatusBadRequest:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					logger.Get().Debug(ctx, "progress",
						logger.Int("sent", int(atomic.LoadInt64(&sent))),
						logger.Int("total", len(cases)))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.Sent = int(atomic.LoadInt64(&sent))
	stats.Succeeded = int(atomic.LoadInt64(&succeeded))
	stats.Rejected = int(atomic.LoadInt64(&rejected))
	stats.Failed = int(atomic.LoadInt64(&failed))
	return outcomes
}

// saveOutcomes writes every outcome as a JSON array.
func saveOutcomes(filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// displayFinalStats logs the final statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Sent > 0 {
		successRate = float64(stats.Succeeded+stats.Rejected) / float64(stats.Sent) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Sent) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("sent", stats.Sent),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Any("verdicts", stats.Verdicts),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
