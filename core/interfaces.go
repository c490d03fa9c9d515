package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling trapped work panics
// =============================================================================

// PanicHandler is called when a work item panics during execution. The panic
// is always trapped first, so neither worker goroutines nor joining callers
// are destabilized; the handler exists for logging and recovery strategies.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called after a panic has been trapped.
	//
	// Parameters:
	// - ctx: The context the work ran under
	// - executorName: The name of the executor where the panic occurred
	// - workerID: The pool worker that ran the work, or -1 when the joining
	//   caller ran it during the stealing phase
	// - panicInfo: The panic value recovered from the work
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, executorName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler reports trapped panics through a Logger.
type DefaultPanicHandler struct {
	logger Logger
}

// NewDefaultPanicHandler creates a panic handler reporting through logger.
// A nil logger falls back to DefaultLogger.
func NewDefaultPanicHandler(logger Logger) *DefaultPanicHandler {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &DefaultPanicHandler{logger: logger}
}

// HandlePanic logs the panic value and stack trace.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, executorName string, workerID int, panicInfo any, stackTrace []byte) {
	h.logger.Error("work panicked",
		F("executor", executorName),
		F("worker", workerID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD,
// etc.).
//
// Methods should be non-blocking and fast to avoid impacting work execution.
type Metrics interface {
	// RecordWorkDuration records how long one work item took to execute.
	RecordWorkDuration(executorName string, duration time.Duration)

	// RecordWorkFailure records that a work item completed with a failure.
	RecordWorkFailure(executorName string)

	// RecordWorkPanic records that a work item panicked during execution.
	RecordWorkPanic(executorName string, panicInfo any)

	// RecordWorkRejected records that a submission was rejected
	// (e.g., during shutdown).
	RecordWorkRejected(executorName string, reason string)

	// RecordQueueDepth records the number of groups currently queued.
	// Called on every enqueue; can also be polled.
	RecordQueueDepth(executorName string, depth int)
}

// NilMetrics provides a no-op metrics implementation.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordWorkDuration(executorName string, duration time.Duration) {}
func (m *NilMetrics) RecordWorkFailure(executorName string)                          {}
func (m *NilMetrics) RecordWorkPanic(executorName string, panicInfo any)             {}
func (m *NilMetrics) RecordWorkRejected(executorName string, reason string)          {}
func (m *NilMetrics) RecordQueueDepth(executorName string, depth int)                {}

// =============================================================================
// RejectedWorkHandler: Interface for handling rejected submissions
// =============================================================================

// RejectedWorkHandler is called when Execute or Join is refused because the
// executor is no longer running. The submitter still receives ErrRejected;
// the handler exists for logging and accounting.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedWorkHandler interface {
	// HandleRejectedWork is called when a submission is rejected.
	//
	// Parameters:
	// - executorName: The name of the executor
	// - reason: Why the submission was rejected (e.g., "shutdown")
	HandleRejectedWork(executorName string, reason string)
}

// DefaultRejectedWorkHandler logs rejected submissions.
type DefaultRejectedWorkHandler struct {
	logger Logger
}

// NewDefaultRejectedWorkHandler creates a handler reporting through logger.
// A nil logger falls back to DefaultLogger.
func NewDefaultRejectedWorkHandler(logger Logger) *DefaultRejectedWorkHandler {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &DefaultRejectedWorkHandler{logger: logger}
}

// HandleRejectedWork logs the rejected submission.
func (h *DefaultRejectedWorkHandler) HandleRejectedWork(executorName string, reason string) {
	h.logger.Warn("work rejected",
		F("executor", executorName),
		F("reason", reason),
	)
}

// =============================================================================
// ExecutorConfig: Configuration for executors
// =============================================================================

// ExecutorConfig holds configuration options shared by all executor kinds.
// All fields are optional; defaults are filled in by the constructors.
type ExecutorConfig struct {
	// Name identifies the executor in metrics, handlers, and stats.
	Name string

	// Logger backs the default handlers. The engine itself never logs;
	// failures reach the caller through handles and error handlers.
	Logger Logger

	// PanicHandler is called after a work panic is trapped.
	// Defaults to DefaultPanicHandler on Logger.
	PanicHandler PanicHandler

	// Metrics records execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedWorkHandler is called when a submission is rejected.
	// Defaults to DefaultRejectedWorkHandler on Logger.
	RejectedWorkHandler RejectedWorkHandler
}

// DefaultExecutorConfig returns a config with default handlers.
func DefaultExecutorConfig() *ExecutorConfig {
	logger := NewDefaultLogger()
	return &ExecutorConfig{
		Logger:              logger,
		PanicHandler:        NewDefaultPanicHandler(logger),
		Metrics:             &NilMetrics{},
		RejectedWorkHandler: NewDefaultRejectedWorkHandler(logger),
	}
}

// withDefaults fills unset fields so executors never nil-check handlers.
func (c *ExecutorConfig) withDefaults(fallbackName string) *ExecutorConfig {
	out := &ExecutorConfig{}
	if c != nil {
		*out = *c
	}
	if out.Name == "" {
		out.Name = fallbackName
	}
	if out.Logger == nil {
		out.Logger = NewDefaultLogger()
	}
	if out.PanicHandler == nil {
		out.PanicHandler = NewDefaultPanicHandler(out.Logger)
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.RejectedWorkHandler == nil {
		out.RejectedWorkHandler = NewDefaultRejectedWorkHandler(out.Logger)
	}
	return out
}
