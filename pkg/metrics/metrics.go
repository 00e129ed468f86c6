// Package metrics exports Prometheus metrics for summary streams, both those
// consumed by the client and those produced by the API server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/skim/pkg/stream"
)

const namespace = "skim"

// Config configures the Exporter.
type Config struct {
	// Registry to use. A private registry is created when nil.
	Registry *prometheus.Registry

	// LatencyBuckets are the histogram buckets for stream durations, in seconds.
	LatencyBuckets []float64

	// ProcessCollectors adds the Go runtime and process collectors.
	ProcessCollectors bool
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}
}

// Exporter holds the collectors and implements stream.Recorder.
type Exporter struct {
	registry *prometheus.Registry

	// Ingest side
	sessionsActive  prometheus.Gauge
	sessionsTotal   *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	framesTotal     prometheus.Counter

	// Producer side
	summariesTotal   *prometheus.CounterVec
	summaryChunks    prometheus.Counter
	summaryDuration  *prometheus.HistogramVec
	validationErrors prometheus.Counter
}

var _ stream.Recorder = (*Exporter)(nil)

// New creates an Exporter and registers its collectors.
func New(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "sessions_active",
		Help:      "Number of summary streams currently being consumed",
	})

	e.sessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "sessions_total",
		Help:      "Total number of consumed summary streams by terminal state and reason",
	}, []string{"state", "reason"})

	e.sessionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "session_duration_seconds",
		Help:      "Time from first read to terminal state",
		Buckets:   cfg.LatencyBuckets,
	}, []string{"state"})

	e.framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "frames_total",
		Help:      "Total number of SSE frames processed",
	})

	e.summariesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "summarizer",
		Name:      "streams_total",
		Help:      "Total number of produced summary streams by outcome",
	}, []string{"outcome"})

	e.summaryChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "summarizer",
		Name:      "chunks_total",
		Help:      "Total number of content frames emitted",
	})

	e.summaryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "summarizer",
		Name:      "stream_duration_seconds",
		Help:      "Time to produce a summary stream",
		Buckets:   cfg.LatencyBuckets,
	}, []string{"outcome"})

	e.validationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "summarizer",
		Name:      "validation_errors_total",
		Help:      "Total number of summarize requests rejected by input validation",
	})

	registry.MustRegister(
		e.sessionsActive,
		e.sessionsTotal,
		e.sessionDuration,
		e.framesTotal,
		e.summariesTotal,
		e.summaryChunks,
		e.summaryDuration,
		e.validationErrors,
	)

	if cfg.ProcessCollectors {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return e
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		Registry: e.registry,
	})
}

// SessionStarted implements stream.Recorder.
func (e *Exporter) SessionStarted() {
	e.sessionsActive.Inc()
}

// SessionFinished implements stream.Recorder.
func (e *Exporter) SessionFinished(state stream.State, reason string, frames int, elapsed time.Duration) {
	e.sessionsActive.Dec()
	e.sessionsTotal.WithLabelValues(state.String(), reason).Inc()
	e.sessionDuration.WithLabelValues(state.String()).Observe(elapsed.Seconds())
	e.framesTotal.Add(float64(frames))
}

// SummaryStreamed records one produced summary stream. outcome is "done",
// "error" or "disconnected".
func (e *Exporter) SummaryStreamed(outcome string, chunks int, elapsed time.Duration) {
	e.summariesTotal.WithLabelValues(outcome).Inc()
	e.summaryChunks.Add(float64(chunks))
	e.summaryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ValidationRejected records a request rejected before streaming began.
func (e *Exporter) ValidationRejected() {
	e.validationErrors.Inc()
}
