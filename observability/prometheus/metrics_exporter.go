package prometheus

import (
	"errors"
	"time"

	"github.com/joinexec/joinexec/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	workDurationSeconds *prom.HistogramVec
	workFailureTotal    *prom.CounterVec
	workPanicTotal      *prom.CounterVec
	workRejectedTotal   *prom.CounterVec
	groupQueueDepth     *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "joinexec"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "work_duration_seconds",
		Help:      "Work execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"executor"})
	failureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "work_failure_total",
		Help:      "Total number of work items completed with a failure.",
	}, []string{"executor"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "work_panic_total",
		Help:      "Total number of trapped work panics.",
	}, []string{"executor"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "work_rejected_total",
		Help:      "Total number of rejected submissions.",
	}, []string{"executor", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "group_queue_depth",
		Help:      "Current shared queue depth.",
	}, []string{"executor"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if failureVec, err = registerCollector(reg, failureVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		workDurationSeconds: durationVec,
		workFailureTotal:    failureVec,
		workPanicTotal:      panicVec,
		workRejectedTotal:   rejectedVec,
		groupQueueDepth:     queueDepthVec,
	}, nil
}

// RecordWorkDuration records work execution duration.
func (m *MetricsExporter) RecordWorkDuration(executorName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.workDurationSeconds.WithLabelValues(normalizeLabel(executorName, "unknown")).Observe(duration.Seconds())
}

// RecordWorkFailure records work failure events.
func (m *MetricsExporter) RecordWorkFailure(executorName string) {
	if m == nil {
		return
	}
	m.workFailureTotal.WithLabelValues(normalizeLabel(executorName, "unknown")).Inc()
}

// RecordWorkPanic records trapped work panic events.
func (m *MetricsExporter) RecordWorkPanic(executorName string, panicInfo any) {
	if m == nil {
		return
	}
	m.workPanicTotal.WithLabelValues(normalizeLabel(executorName, "unknown")).Inc()
}

// RecordWorkRejected records rejected submission events.
func (m *MetricsExporter) RecordWorkRejected(executorName string, reason string) {
	if m == nil {
		return
	}
	m.workRejectedTotal.WithLabelValues(normalizeLabel(executorName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

// RecordQueueDepth records shared queue depth.
func (m *MetricsExporter) RecordQueueDepth(executorName string, depth int) {
	if m == nil {
		return
	}
	m.groupQueueDepth.WithLabelValues(normalizeLabel(executorName, "unknown")).Set(float64(depth))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prom.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	var zero T
	return zero, err
}
