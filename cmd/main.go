package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gamefit/internal/adapters/http/api"
	"github.com/okian/gamefit/internal/adapters/http/swagger"
	"github.com/okian/gamefit/internal/adapters/repository"
	app "github.com/okian/gamefit/internal/app"
	"github.com/okian/gamefit/internal/config"
	"github.com/okian/gamefit/pkg/logger"
	"github.com/okian/gamefit/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Fatal(ctx, "server failed", logger.Error(err))
	}
}

// run serves until ctx is cancelled. A missing model or internal key aborts
// before the listener opens.
func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateServing(); err != nil {
		return err
	}
	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := loadService(ctx, cfg, loggerInstance)
	if err != nil {
		return err
	}

	metrics.Enable(cfg.MetricsEnabled)
	metrics.SetRefreshInterval(cfg.MetricsInterval)
	if cfg.MetricsEnabled {
		go startSystemMetricsUpdater(ctx)
	}

	mux, err := newMux(ctx, cfg, svc)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// loadService reads the configured artifact. The returned service is Ready.
func loadService(ctx context.Context, cfg *config.Config, l logger.Logger) (*app.Service, error) {
	svc := app.New(
		app.WithLogger(l),
		app.WithCacheSize(cfg.PredictionCacheSize),
	)
	store := repository.NewFileStore(cfg.ArtifactDir)
	if err := svc.Load(ctx, store, cfg.ModelVersion); err != nil {
		return nil, err
	}
	return svc, nil
}

// newMux registers docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	apiServer, err := api.NewServer(svc, svc, cfg.InternalAPIKey)
	if err != nil {
		return nil, err
	}
	apiServer.Register(ctx, mux)
	return mux, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
