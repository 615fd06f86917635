package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager at construction. Names, buckets and labels
// are fixed once the collectors are registered; Enable and
// SetRefreshInterval adjust the global manager at runtime.
type Option func(*Manager)

// WithNamespace replaces the "gamefit" namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "predictor" subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets of the latency histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithMetricsEnabled switches recording on or off.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled.Store(enabled)
	}
}

// WithRefreshInterval sets how often system gauges are sampled.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval.Store(int64(interval))
		}
	}
}

// WithConstLabels attaches labels to every series, e.g. the deployment.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if labels != nil {
			m.constLabels = labels
		}
	}
}

// WithRegistry registers the collectors on registry instead of the
// default registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
