// Package metrics exposes the engine's Prometheus instrumentation:
// scheduler flush behavior, host-tree operation volume, and live session
// counts. Serve the standard promhttp handler to publish them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ripple-ui/ripple/pkg/reactive"
	"github.com/ripple-ui/ripple/pkg/vdom"
)

// Config configures the metric set.
type Config struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metric set.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "ripple",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is one registered metric set. Create one per registry and
// share it between the scheduler, the node-ops wrapper, and the session
// server.
type Metrics struct {
	flushesTotal  prometheus.Counter
	flushDuration prometheus.Histogram
	watcherRuns   prometheus.Histogram
	cycleTrips    prometheus.Counter

	hostOps *prometheus.CounterVec

	activeSessions prometheus.Gauge
	framesSent     prometheus.Counter
	frameBytes     prometheus.Histogram
	sessionErrors  *prometheus.CounterVec
}

// New registers the metric set and returns it.
//
// Metrics collected:
//   - ripple_flushes_total: Counter of scheduler flushes
//   - ripple_flush_duration_seconds: Histogram of flush duration
//   - ripple_watcher_runs_per_flush: Histogram of watcher runs per flush
//   - ripple_update_cycles_tripped_total: Counter of runaway watchers dropped
//   - ripple_host_ops_total: Counter of host-tree operations by kind
//   - ripple_active_sessions: Gauge of live sessions
//   - ripple_frames_sent_total: Counter of op frames sent to clients
//   - ripple_frame_bytes: Histogram of encoded frame size
//   - ripple_session_errors_total: Counter of session errors by type
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		watcherRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_runs_per_flush",
			Help:        "Number of watcher runs performed per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		cycleTrips: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_cycles_tripped_total",
			Help:        "Total number of watchers dropped for exceeding the reentrant update bound",
			ConstLabels: config.ConstLabels,
		}),

		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops_total",
			Help:        "Total host-tree operations performed by the reconciler",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live component sessions",
			ConstLabels: config.ConstLabels,
		}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total op frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		frameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes",
			Help:        "Encoded op frame size in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{64, 256, 1024, 4096, 16384, 65536, 262144},
		}),

		sessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "session_errors_total",
			Help:        "Total session errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// SchedulerOptions returns scheduler options that feed flush and cycle
// observations into this metric set.
func (m *Metrics) SchedulerOptions() []reactive.SchedulerOption {
	return []reactive.SchedulerOption{
		reactive.WithFlushObserver(func(d time.Duration, ran int) {
			m.flushesTotal.Inc()
			m.flushDuration.Observe(d.Seconds())
			m.watcherRuns.Observe(float64(ran))
		}),
		reactive.WithCycleObserver(func(uint64) {
			m.cycleTrips.Inc()
		}),
	}
}

// RecordFrame records one op frame sent to a client.
func (m *Metrics) RecordFrame(bytes int) {
	m.framesSent.Inc()
	m.frameBytes.Observe(float64(bytes))
}

// SessionStarted records a live session opening.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded records a live session closing.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// RecordSessionError records a session error. Types stay coarse to keep
// label cardinality bounded.
func (m *Metrics) RecordSessionError(errorType string) {
	m.sessionErrors.WithLabelValues(errorType).Inc()
}

// InstrumentNodeOps wraps ops so every reconciler operation is counted
// by kind.
func (m *Metrics) InstrumentNodeOps(ops vdom.NodeOps) vdom.NodeOps {
	return &countingOps{inner: ops, hostOps: m.hostOps}
}

type countingOps struct {
	inner   vdom.NodeOps
	hostOps *prometheus.CounterVec
}

func (c *countingOps) CreateElement(tag string) vdom.NodeRef {
	c.hostOps.WithLabelValues("create_element").Inc()
	return c.inner.CreateElement(tag)
}

func (c *countingOps) CreateText(text string) vdom.NodeRef {
	c.hostOps.WithLabelValues("create_text").Inc()
	return c.inner.CreateText(text)
}

func (c *countingOps) CreateComment(text string) vdom.NodeRef {
	c.hostOps.WithLabelValues("create_comment").Inc()
	return c.inner.CreateComment(text)
}

func (c *countingOps) InsertBefore(parent, child, ref vdom.NodeRef) {
	c.hostOps.WithLabelValues("insert_before").Inc()
	c.inner.InsertBefore(parent, child, ref)
}

func (c *countingOps) AppendChild(parent, child vdom.NodeRef) {
	c.hostOps.WithLabelValues("append_child").Inc()
	c.inner.AppendChild(parent, child)
}

func (c *countingOps) RemoveChild(parent, child vdom.NodeRef) {
	c.hostOps.WithLabelValues("remove_child").Inc()
	c.inner.RemoveChild(parent, child)
}

func (c *countingOps) Parent(node vdom.NodeRef) vdom.NodeRef {
	return c.inner.Parent(node)
}

func (c *countingOps) NextSibling(node vdom.NodeRef) vdom.NodeRef {
	return c.inner.NextSibling(node)
}

func (c *countingOps) FirstChild(node vdom.NodeRef) vdom.NodeRef {
	return c.inner.FirstChild(node)
}

func (c *countingOps) SetText(node vdom.NodeRef, text string) {
	c.hostOps.WithLabelValues("set_text").Inc()
	c.inner.SetText(node, text)
}

func (c *countingOps) TagName(node vdom.NodeRef) string {
	return c.inner.TagName(node)
}
