package sped

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zoobzio/capitan"
)

// Metric namespace and subsystem.
const (
	MetricsNamespace = "sped"
	MetricsSubsystem = "engine"
)

// Metrics is a Prometheus collector fed by sped signals.
type Metrics struct {
	// ProcessTotal counts finished calls. Labels: status (success, failed).
	ProcessTotal *prometheus.CounterVec

	// ProcessDuration measures call latency. Labels: status.
	ProcessDuration *prometheus.HistogramVec

	// PathTotal counts successful calls by path and tier.
	PathTotal *prometheus.CounterVec

	// Selections counts selector decisions. Labels: mode, path, tier.
	Selections *prometheus.CounterVec

	// Confidence tracks result confidence. Labels: path.
	Confidence *prometheus.HistogramVec

	// Complexity tracks input complexity at selection time.
	Complexity prometheus.Histogram

	// Residual tracks residual error after mitigation. Labels: strategy.
	Residual *prometheus.HistogramVec

	// Degradations counts engines that lost the enhanced resource at construction.
	Degradations prometheus.Counter

	// HookFailures counts evolution hook faults.
	HookFailures prometheus.Counter

	// LoadUnavailable counts failed live memory load reads.
	LoadUnavailable prometheus.Counter
}

var unitBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0}

// NewMetrics registers sped metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProcessTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "process_total",
			Help:      "Dispatch cycles by outcome",
		}, []string{"status"}),
		ProcessDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "process_duration_seconds",
			Help:      "Dispatch cycle latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		PathTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "path_total",
			Help:      "Successful dispatch cycles by path and tier",
		}, []string{"path", "tier"}),
		Selections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "selections_total",
			Help:      "Selector decisions by mode, path and tier",
		}, []string{"mode", "path", "tier"}),
		Confidence: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "confidence",
			Help:      "Distribution of result confidence",
			Buckets:   unitBuckets,
		}, []string{"path"}),
		Complexity: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "complexity",
			Help:      "Distribution of input complexity",
			Buckets:   unitBuckets,
		}),
		Residual: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "mitigation",
			Name:      "residual_error",
			Help:      "Residual error after mitigation",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.0075, 0.01},
		}, []string{"strategy"}),
		Degradations: f.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "degraded_total",
			Help:      "Engines that started without the enhanced resource",
		}),
		HookFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "hook",
			Name:      "failures_total",
			Help:      "Evolution hook faults",
		}),
		LoadUnavailable: f.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "memory",
			Name:      "load_unavailable_total",
			Help:      "Live memory load reads that failed",
		}),
	}
}

// Observe subscribes the collector to sped signals. Close the returned
// observer to stop collecting.
func (m *Metrics) Observe() *capitan.Observer {
	return capitan.Observe(m.handle,
		ProcessCompleted,
		ProcessFailed,
		PathSelected,
		MitigationApplied,
		EngineDegraded,
		HookFailed,
		MemoryLoadUnavailable,
	)
}

func (m *Metrics) handle(_ context.Context, e *capitan.Event) {
	switch e.Signal() {
	case ProcessCompleted:
		path, _ := FieldPath.From(e)
		tier, _ := FieldTier.From(e)
		m.ProcessTotal.WithLabelValues(string(StatusSuccess)).Inc()
		m.PathTotal.WithLabelValues(path, tier).Inc()
		if c, ok := FieldConfidence.From(e); ok {
			m.Confidence.WithLabelValues(path).Observe(c)
		}
		if d, ok := FieldDuration.From(e); ok {
			m.ProcessDuration.WithLabelValues(string(StatusSuccess)).Observe(d.Seconds())
		}

	case ProcessFailed:
		m.ProcessTotal.WithLabelValues(string(StatusFailed)).Inc()
		if d, ok := FieldDuration.From(e); ok {
			m.ProcessDuration.WithLabelValues(string(StatusFailed)).Observe(d.Seconds())
		}

	case PathSelected:
		mode, _ := FieldMode.From(e)
		path, _ := FieldPath.From(e)
		tier, _ := FieldTier.From(e)
		m.Selections.WithLabelValues(mode, path, tier).Inc()
		if c, ok := FieldComplexity.From(e); ok {
			m.Complexity.Observe(c)
		}

	case MitigationApplied:
		strategy, _ := FieldStrategy.From(e)
		if r, ok := FieldResidual.From(e); ok {
			m.Residual.WithLabelValues(strategy).Observe(r)
		}

	case EngineDegraded:
		m.Degradations.Inc()

	case HookFailed:
		m.HookFailures.Inc()

	case MemoryLoadUnavailable:
		m.LoadUnavailable.Inc()
	}
}
