package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/oversee/internal/logger"
)

// Default GPU polling settings. GPU probes are slower and sometimes
// privileged, so they run on their own cadence.
const (
	DefaultGPUInterval = 2 * time.Second
	DefaultGPUTimeout  = 1500 * time.Millisecond
)

// GPUSource is one way of measuring GPU utilization.
// A source that cannot run on this host returns ErrGPUUnavailable.
type GPUSource interface {
	Name() string
	Sample(ctx context.Context) (GPUUsage, error)
}

// GPUCollector polls GPU sources in its own goroutine and holds the last
// value between polls. Latest never blocks on a probe.
type GPUCollector struct {
	sources  []GPUSource
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
	now      func() time.Time

	mu     sync.RWMutex
	latest Result[GPUReading]

	startOnce sync.Once
}

// NewGPUCollector creates a collector. Sources are tried in order and the
// first one returning data wins.
func NewGPUCollector(sources []GPUSource, interval, timeout time.Duration, log logger.Logger) *GPUCollector {
	if interval <= 0 {
		interval = DefaultGPUInterval
	}
	if timeout <= 0 {
		timeout = DefaultGPUTimeout
	}
	if log == nil {
		log = logger.Noop()
	}
	return &GPUCollector{
		sources:  sources,
		interval: interval,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
		latest:   Result[GPUReading]{Status: StatusDegraded},
	}
}

// Start launches the polling goroutine. It stops when ctx is done.
// Calling Start more than once has no effect.
func (g *GPUCollector) Start(ctx context.Context) {
	g.startOnce.Do(func() {
		go g.loop(ctx)
	})
}

func (g *GPUCollector) loop(ctx context.Context) {
	g.Poll(ctx)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Poll(ctx)
		}
	}
}

// Latest returns the held reading without blocking on a probe.
func (g *GPUCollector) Latest() Result[GPUReading] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.latest
}

// Poll queries the sources once and updates the held reading.
//
//   - a source returning data yields StatusOK and clears the unavailable flag
//   - if every source is unavailable the reading is zero with StatusDegraded
//   - any other failure keeps the last value with StatusStale
func (g *GPUCollector) Poll(ctx context.Context) {
	var transient error
	for _, src := range g.sources {
		usage, err := g.sampleOne(ctx, src)
		if err == nil {
			g.store(Result[GPUReading]{Value: g.reading(src.Name(), usage), Status: StatusOK})
			return
		}
		if errors.Is(err, ErrGPUUnavailable) {
			g.log.Debug("gpu source %s unavailable: %v", src.Name(), err)
			continue
		}
		g.log.Debug("gpu source %s failed: %v", src.Name(), err)
		if transient == nil {
			transient = fmt.Errorf("gpu source %s: %w", src.Name(), err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if transient != nil && g.latest.Value.Available {
		g.latest = Result[GPUReading]{Value: g.latest.Value, Status: StatusStale, Err: transient}
		return
	}
	err := transient
	if err == nil {
		err = ErrGPUUnavailable
	}
	g.latest = Result[GPUReading]{
		Value:  GPUReading{SampledAt: g.now()},
		Status: StatusDegraded,
		Err:    err,
	}
}

func (g *GPUCollector) sampleOne(ctx context.Context, src GPUSource) (GPUUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	usage, err := src.Sample(ctx)
	if ctx.Err() == context.DeadlineExceeded && err != nil {
		err = fmt.Errorf("timed out after %s: %w", g.timeout, err)
	}
	g.log.Debug("gpu source %s took %s", src.Name(), time.Since(start))
	return usage, err
}

func (g *GPUCollector) reading(source string, u GPUUsage) GPUReading {
	perCore := make([]float64, len(u.PerCore))
	for i, v := range u.PerCore {
		perCore[i] = clampPercent(v)
	}
	pids := make([]int32, len(u.ActivePIDs))
	copy(pids, u.ActivePIDs)
	return GPUReading{
		Overall:    clampPercent(u.Overall),
		PerCore:    perCore,
		Available:  true,
		Source:     source,
		Name:       u.Name,
		ActivePIDs: pids,
		SampledAt:  g.now(),
	}
}

func (g *GPUCollector) store(r Result[GPUReading]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest = r
}
