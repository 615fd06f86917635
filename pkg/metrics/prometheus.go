// Package metrics provides Prometheus metrics for the gamefit services.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// defaultLatencyBuckets spans sub-millisecond cache hits up to slow
// artifact loads, in milliseconds.
var defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the gamefit services.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         atomic.Bool
	refreshInterval atomic.Int64
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Prediction Metrics
	predictionsTotal  *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	predictionErrors  *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter

	// Model Metrics
	modelLoaded       prometheus.Gauge
	modelInfo         *prometheus.GaugeVec
	modelLoadDuration prometheus.Histogram

	// Training Metrics
	trainingRuns         *prometheus.CounterVec
	trainingDuration     prometheus.Histogram
	trainingRecords      prometheus.Gauge
	trainingPositiveRate prometheus.Gauge
	trainingAccuracy     prometheus.Gauge
	trainingROCAUC       prometheus.Gauge
	labelThreshold       prometheus.Gauge

	// Artifact Repository Metrics
	artifactOperations *prometheus.CounterVec
	artifactLatency    *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "gamefit",
		subsystem:      "predictor",
		latencyBuckets: defaultLatencyBuckets,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often system gauges should be sampled.
func (m *Manager) RefreshInterval() time.Duration {
	return time.Duration(m.refreshInterval.Load())
}

// Enabled reports whether recording is switched on.
func (m *Manager) Enabled() bool {
	return m.enabled.Load()
}

// Enable switches recording of the global manager on or off.
func Enable(on bool) {
	globalManager.enabled.Store(on)
}

// Enabled reports whether the global manager records.
func Enabled() bool {
	return globalManager.Enabled()
}

// SetRefreshInterval changes how often system gauges are sampled; a
// non-positive interval keeps the current one.
func SetRefreshInterval(interval time.Duration) {
	WithRefreshInterval(interval)(globalManager)
}

// RefreshInterval returns the sampling interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.latencyBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.predictionsTotal = m.counterVec("predictions_total", "Total number of predictions by confidence tier", "confidence")
	m.predictionLatency = m.histogram("prediction_latency_milliseconds", "Prediction latency in milliseconds", m.latencyBuckets)
	m.predictionErrors = m.counterVec("prediction_errors_total", "Total number of failed predictions by reason", "reason")
	m.cacheHits = m.counter("prediction_cache_hits_total", "Predictions served from the cache")
	m.cacheMisses = m.counter("prediction_cache_misses_total", "Predictions computed by the model")

	m.modelLoaded = m.gauge("model_loaded", "1 when a model artifact is loaded and serving")
	m.modelInfo = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "model_info",
		Help: "Loaded model identity; the value is the held-out accuracy", ConstLabels: m.constLabels,
	}, []string{"version", "label_policy"})
	m.modelLoadDuration = m.histogram("model_load_duration_milliseconds", "Model artifact load duration in milliseconds", m.latencyBuckets)

	m.trainingRuns = m.counterVec("training_runs_total", "Training runs by outcome", "status")
	m.trainingDuration = m.histogram("training_duration_seconds", "Training run duration in seconds",
		[]float64{1, 5, 15, 30, 60, 120, 300, 600, 1200})
	m.trainingRecords = m.gauge("training_records", "Records used by the last training run")
	m.trainingPositiveRate = m.gauge("training_positive_rate", "Share of positively labelled records in the last run")
	m.trainingAccuracy = m.gauge("training_accuracy", "Held-out accuracy of the last training run")
	m.trainingROCAUC = m.gauge("training_roc_auc", "Held-out ROC-AUC of the last training run")
	m.labelThreshold = m.gauge("label_threshold", "Success score threshold chosen by the label policy")

	m.artifactOperations = m.counterVec("artifact_operations_total", "Artifact store operations by type and outcome", "operation", "status")
	m.artifactLatency = m.histogramVec("artifact_operation_latency_milliseconds", "Artifact store operation latency in milliseconds", "operation")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Prediction Metrics Functions.

// RecordPrediction counts a served prediction and its latency.
func RecordPrediction(confidence string, latency time.Duration) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.predictionsTotal.WithLabelValues(confidence).Inc()
	globalManager.predictionLatency.Observe(float64(latency.Microseconds()) / 1000)
}

// RecordPredictionError counts a failed prediction.
func RecordPredictionError(reason string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.predictionErrors.WithLabelValues(reason).Inc()
}

// RecordCacheHit counts a prediction served from the cache.
func RecordCacheHit() {
	if globalManager.enabled.Load() {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss counts a prediction computed by the model.
func RecordCacheMiss() {
	if globalManager.enabled.Load() {
		globalManager.cacheMisses.Inc()
	}
}

// Model Metrics Functions.

// SetModelLoaded publishes the identity of the serving model.
func SetModelLoaded(version, labelPolicy string, accuracy float64, loadTime time.Duration) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.modelLoaded.Set(1)
	globalManager.modelInfo.Reset()
	globalManager.modelInfo.WithLabelValues(version, labelPolicy).Set(accuracy)
	globalManager.modelLoadDuration.Observe(float64(loadTime.Microseconds()) / 1000)
}

// Training Metrics Functions.

// RecordTrainingRun records the outcome of a training run.
func RecordTrainingRun(status string, duration time.Duration) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.trainingRuns.WithLabelValues(status).Inc()
	globalManager.trainingDuration.Observe(duration.Seconds())
}

// UpdateTrainingDataset publishes dataset size, positive rate and label threshold.
func UpdateTrainingDataset(records int, positiveRate, threshold float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.trainingRecords.Set(float64(records))
	globalManager.trainingPositiveRate.Set(positiveRate)
	globalManager.labelThreshold.Set(threshold)
}

// UpdateTrainingScores publishes held-out evaluation scores.
func UpdateTrainingScores(accuracy, rocAUC float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.trainingAccuracy.Set(accuracy)
	globalManager.trainingROCAUC.Set(rocAUC)
}

// Artifact Repository Metrics Functions.

// RecordArtifactOperation records a store operation outcome and latency.
func RecordArtifactOperation(operation, status string, latency time.Duration) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.artifactOperations.WithLabelValues(operation, status).Inc()
	globalManager.artifactLatency.WithLabelValues(operation).Observe(float64(latency.Microseconds()) / 1000)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Snapshot gathers the custom registry and returns the summed value of
// every counter or gauge series of the named family.
func Snapshot(family string) (float64, error) {
	families, err := customRegistry.Gather()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrObserveFailed, err)
	}
	for _, f := range families {
		if f.GetName() != family {
			continue
		}
		var sum float64
		for _, m := range f.GetMetric() {
			sum += metricValue(m)
		}
		return sum, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, family)
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}
