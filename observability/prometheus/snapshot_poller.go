package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/joinexec/joinexec/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SnapshotProvider provides current executor stats snapshots.
type SnapshotProvider interface {
	Stats() core.ExecutorStats
}

// SnapshotPoller periodically exports executor Stats() snapshots into
// Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	executorsMu sync.RWMutex
	executors   map[string]SnapshotProvider

	executorQueued  *prom.GaugeVec
	executorPending *prom.GaugeVec
	executorActive  *prom.GaugeVec
	executorWorkers *prom.GaugeVec
	executorState   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	queued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "joinexec",
		Name:      "executor_queued",
		Help:      "Scheduling units waiting in the shared queue per executor.",
	}, []string{"executor", "type"})
	pending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "joinexec",
		Name:      "executor_pending_work",
		Help:      "Published work items not yet executed per executor.",
	}, []string{"executor", "type"})
	active := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "joinexec",
		Name:      "executor_active",
		Help:      "Work items currently executing per executor.",
	}, []string{"executor", "type"})
	workers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "joinexec",
		Name:      "executor_workers",
		Help:      "Worker count per executor.",
	}, []string{"executor", "type"})
	state := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "joinexec",
		Name:      "executor_state",
		Help:      "Executor lifecycle state (0=running, 1=shutdown, 2=terminated).",
	}, []string{"executor", "type"})

	var err error
	if queued, err = registerCollector(reg, queued); err != nil {
		return nil, err
	}
	if pending, err = registerCollector(reg, pending); err != nil {
		return nil, err
	}
	if active, err = registerCollector(reg, active); err != nil {
		return nil, err
	}
	if workers, err = registerCollector(reg, workers); err != nil {
		return nil, err
	}
	if state, err = registerCollector(reg, state); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:        interval,
		executors:       make(map[string]SnapshotProvider),
		executorQueued:  queued,
		executorPending: pending,
		executorActive:  active,
		executorWorkers: workers,
		executorState:   state,
	}, nil
}

// AddExecutor adds or replaces an executor snapshot provider by name.
func (p *SnapshotPoller) AddExecutor(name string, provider SnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "executor")
	p.executorsMu.Lock()
	p.executors[name] = provider
	p.executorsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.executorsMu.RLock()
	defer p.executorsMu.RUnlock()

	for name, provider := range p.executors {
		stats := provider.Stats()
		typeLabel := normalizeLabel(stats.Type, "unknown")
		p.executorQueued.WithLabelValues(name, typeLabel).Set(float64(stats.Queued))
		p.executorPending.WithLabelValues(name, typeLabel).Set(float64(stats.PendingWork))
		p.executorActive.WithLabelValues(name, typeLabel).Set(float64(stats.Active))
		p.executorWorkers.WithLabelValues(name, typeLabel).Set(float64(stats.Workers))
		p.executorState.WithLabelValues(name, typeLabel).Set(float64(stats.State))
	}
}
