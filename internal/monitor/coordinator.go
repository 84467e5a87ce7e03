package monitor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/logger"
)

// Options configures a Coordinator.
type Options struct {
	// Interval is the sampling period of CPU, memory and processes.
	Interval time.Duration
	// GPUInterval and GPUTimeout bound the GPU polling goroutine.
	GPUInterval time.Duration
	GPUTimeout  time.Duration

	TimelineScope  time.Duration
	TimelineScopes []time.Duration
	// Scrollback is how far behind the newest sample the timeline may be scrolled.
	Scrollback time.Duration

	Sort   SortMode
	Filter FilterState

	NormalizeByCores bool
	GPUHints         []string

	// PortInterval is the refresh period of the listening port table.
	PortInterval time.Duration
	// FatalAfter is the number of consecutive process enumeration failures
	// tolerated before Run gives up.
	FatalAfter int

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Interval:       time.Second,
		GPUInterval:    DefaultGPUInterval,
		GPUTimeout:     DefaultGPUTimeout,
		TimelineScope:  60 * time.Second,
		TimelineScopes: []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second, 300 * time.Second},
		Scrollback:     900 * time.Second,
		Sort:           SortByCPU,
		GPUHints:       DefaultGPUHints,
		PortInterval:   15 * time.Second,
		FatalAfter:     5,
	}
}

// Validate checks the options. Invalid values are rejected, never clamped.
func (o Options) Validate() error {
	switch {
	case o.Interval <= 0:
		return configError(fmt.Sprintf("interval must be positive, got %s", o.Interval))
	case o.GPUInterval <= 0:
		return configError(fmt.Sprintf("gpu interval must be positive, got %s", o.GPUInterval))
	case o.GPUTimeout <= 0:
		return configError(fmt.Sprintf("gpu timeout must be positive, got %s", o.GPUTimeout))
	case o.TimelineScope <= 0:
		return configError(fmt.Sprintf("timeline scope must be positive, got %s", o.TimelineScope))
	case o.Scrollback < 0:
		return configError(fmt.Sprintf("timeline scrollback cannot be negative, got %s", o.Scrollback))
	case o.PortInterval <= 0:
		return configError(fmt.Sprintf("port interval must be positive, got %s", o.PortInterval))
	case o.FatalAfter < 0:
		return configError(fmt.Sprintf("fatal_after cannot be negative, got %d", o.FatalAfter))
	case !o.Sort.Valid():
		return configError(fmt.Sprintf("unknown sort mode %d", o.Sort))
	}
	for _, s := range o.TimelineScopes {
		if s <= 0 {
			return configError(fmt.Sprintf("timeline scopes must be positive, got %s", s))
		}
	}
	return nil
}

func configError(msg string) error {
	return errors.New(errors.ErrConfig, msg, "Fix the value in your config file or command-line flags")
}

// Sources are the data sources a Coordinator samples. Ports, Pressure,
// HostInfo and GPU are optional.
type Sources struct {
	CPU       CPUTimesSource
	Memory    MemorySource
	Pressure  PressureSource
	Processes ProcessSource
	Ports     PortSource
	GPU       []GPUSource
	HostInfo  func(ctx context.Context) (HostInfo, error)
}

// HostSources returns the sources of the local machine.
func HostSources(gpu []GPUSource) Sources {
	return Sources{
		CPU:       HostCPU{},
		Memory:    HostMemory{},
		Pressure:  NewPressureSource(),
		Processes: NewHostProcesses(),
		Ports:     HostPorts{},
		GPU:       gpu,
		HostInfo:  ReadHostInfo,
	}
}

// readings is the output of the last completed tick.
type readings struct {
	at         time.Time
	cpu        Result[CPUReading]
	gpu        Result[GPUReading]
	mem        Result[MemoryReading]
	procs      *ProcessSnapshot
	processErr error
	history    HistoryView // frozen once per tick, after every push
}

// Coordinator drives the sampling cycle and publishes immutable snapshots.
// Tick and Run must be called from a single goroutine; every other method is
// safe to call concurrently.
type Coordinator struct {
	opts    Options
	log     logger.Logger
	now     func() time.Time
	host    HostInfo
	cpu     *CPUCollector
	mem     *MemoryCollector
	gpu     *GPUCollector
	procs   ProcessSource
	ports   PortSource
	table   *ProcessTable
	history *History

	portMap map[int32][]uint16
	portsAt time.Time

	procFailures int

	state    atomic.Int32
	paused   atomic.Bool
	snapshot atomic.Pointer[Snapshot]

	// mu guards the view settings, the last readings and the generation.
	mu     sync.Mutex
	sort   SortMode
	filter FilterState
	scope  time.Duration
	last   readings
	gen    uint64
}

// NewCoordinator validates opts, probes the process source and publishes an
// initial empty snapshot. A process source that cannot enumerate is fatal.
func NewCoordinator(ctx context.Context, opts Options, src Sources, log logger.Logger) (*Coordinator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if src.CPU == nil || src.Memory == nil || src.Processes == nil {
		return nil, errors.New(errors.ErrSource,
			"CPU, memory and process sources are required",
			"This is a bug in how the monitor was constructed")
	}
	if log == nil {
		log = logger.Noop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cpuCollector, err := NewCPUCollector(ctx, src.CPU)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSource,
			"Can't read CPU counters",
			"Check that /proc is mounted (Linux) or that the process is not sandboxed")
	}

	raw, err := src.Processes.Processes(ctx)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSource,
			"Can't enumerate processes",
			"Run oversee outside restricted sandboxes, or grant it permission to inspect processes")
	}

	c := &Coordinator{
		opts:    opts,
		log:     log,
		now:     now,
		cpu:     cpuCollector,
		mem:     NewMemoryCollector(src.Memory, src.Pressure),
		gpu:     NewGPUCollector(src.GPU, opts.GPUInterval, opts.GPUTimeout, log),
		procs:   src.Processes,
		ports:   src.Ports,
		table:   NewProcessTable(opts.NormalizeByCores, cpuCollector.Cores(), opts.GPUHints),
		history: NewHistory(historyCapacity(opts.TimelineScope, opts.TimelineScopes, opts.Scrollback, opts.Interval)),
		sort:    opts.Sort,
		filter:  opts.Filter,
		scope:   opts.TimelineScope,
	}
	c.gpu.now = now

	if src.HostInfo != nil {
		if info, err := src.HostInfo(ctx); err == nil {
			c.host = info
		} else {
			c.log.Debug("host info unavailable: %v", err)
		}
	}

	// The probe seeds the table so the first tick already has CPU deltas.
	at := now()
	c.cpu.Sample(ctx)
	c.table.Refresh(raw, at, 0, nil)

	c.mu.Lock()
	c.last = readings{
		at:      at,
		cpu:     Result[CPUReading]{Value: CPUReading{PerCore: make([]float64, cpuCollector.Cores())}},
		gpu:     c.gpu.Latest(),
		procs:   c.table.Current(),
		history: c.history.Freeze(),
	}
	c.publishLocked()
	c.mu.Unlock()

	return c, nil
}

// historyCapacity is the number of samples needed to cover the widest scope
// plus the scroll-back distance.
func historyCapacity(scope time.Duration, scopes []time.Duration, scrollback, interval time.Duration) int {
	widest := scope
	for _, s := range scopes {
		if s > widest {
			widest = s
		}
	}
	n := int(math.Ceil(float64(widest+scrollback) / float64(interval)))
	if n < 1 {
		n = 1
	}
	return n
}

// Run samples until ctx is done. The first tick happens immediately. It
// returns nil on cancellation and a SOURCE error when process enumeration
// fails permanently.
func (c *Coordinator) Run(ctx context.Context) error {
	c.gpu.Start(ctx)

	if err := c.Tick(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick performs one sampling cycle and publishes the result. A paused
// coordinator returns immediately without sampling. Transient collector
// failures are logged and absorbed; only a fatal process source failure is
// returned.
func (c *Coordinator) Tick(ctx context.Context) error {
	if c.paused.Load() {
		return nil
	}
	start := time.Now()
	c.state.Store(int32(StateSampling))
	defer c.state.Store(int32(StateIdle))

	at := c.now()

	var (
		wg         sync.WaitGroup
		cpuRes     Result[CPUReading]
		memRes     Result[MemoryReading]
		raw        []RawProcess
		processErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		cpuRes = c.cpu.Sample(ctx)
	}()
	go func() {
		defer wg.Done()
		memRes = c.mem.Sample(ctx)
	}()
	go func() {
		defer wg.Done()
		raw, processErr = c.procs.Processes(ctx)
		if processErr == nil {
			c.attachPorts(ctx, at, raw)
		}
	}()
	wg.Wait()

	gpuRes := c.gpu.Latest()
	sampled := time.Since(start)

	c.state.Store(int32(StatePublishing))

	if cpuRes.Err != nil {
		c.log.Debug("cpu sample: %v", cpuRes.Err)
	}
	if memRes.Err != nil {
		c.log.Debug("memory sample: %v", memRes.Err)
	}
	c.pushHistory(at, cpuRes, memRes, gpuRes)
	history := c.history.Freeze()

	var fatal error
	procs := c.table.Current()
	if processErr != nil {
		c.procFailures++
		c.log.Warn("process enumeration failed (%d in a row): %v", c.procFailures, processErr)
		if IsSourceUnavailable(processErr) || c.procFailures > c.opts.FatalAfter {
			fatal = errors.WrapWithCode(processErr, errors.ErrSource,
				fmt.Sprintf("Process enumeration failed %d times in a row", c.procFailures),
				"Run oversee outside restricted sandboxes, or grant it permission to inspect processes")
		}
	} else {
		c.procFailures = 0
		var gpuTotal float64
		if gpuRes.Value.Available {
			gpuTotal = gpuRes.Value.Overall
		}
		procs = c.table.Refresh(raw, at, gpuTotal, gpuRes.Value.ActivePIDs)
	}

	c.mu.Lock()
	c.last = readings{
		at:         at,
		cpu:        cpuRes,
		gpu:        gpuRes,
		mem:        memRes,
		procs:      procs,
		processErr: processErr,
		history:    history,
	}
	c.publishLocked()
	c.mu.Unlock()

	c.log.Debug("tick: sampled in %s, published in %s, %d processes",
		sampled, time.Since(start), procs.Len())
	return fatal
}

// attachPorts fills in listening ports, refreshing the table when it is
// older than PortInterval. A failed refresh keeps the previous table.
func (c *Coordinator) attachPorts(ctx context.Context, at time.Time, raw []RawProcess) {
	if c.ports == nil {
		return
	}
	if c.portMap == nil || at.Sub(c.portsAt) >= c.opts.PortInterval {
		m, err := c.ports.ListeningPorts(ctx)
		if err != nil {
			c.log.Debug("listening ports: %v", err)
		} else {
			c.portMap = m
		}
		c.portsAt = at
	}
	for i := range raw {
		if ports, ok := c.portMap[raw[i].PID]; ok {
			raw[i].Ports = ports
		}
	}
}

func (c *Coordinator) pushHistory(at time.Time, cpuRes Result[CPUReading], memRes Result[MemoryReading], gpuRes Result[GPUReading]) {
	push := func(id SeriesID, v float64) {
		if err := c.history.Push(id, MetricSample{Timestamp: at, Value: clampPercent(v)}); err != nil {
			c.log.Debug("history %s: %v", id, err)
		}
	}

	push(SeriesCPU, cpuRes.Value.Overall)
	for i, v := range cpuRes.Value.PerCore {
		push(CoreSeries(i), v)
	}
	if memRes.Value.TotalBytes > 0 {
		push(SeriesMemory, memRes.Value.UsedPercent())
	}
	// Unavailable GPU zeros are placeholders, not measurements.
	if gpuRes.Value.Available {
		push(SeriesGPU, gpuRes.Value.Overall)
		for i, v := range gpuRes.Value.PerCore {
			push(GPUCoreSeries(i), v)
		}
	}
}

// publishLocked builds a snapshot from the last readings and the current view
// settings and stores it. Setters republish the history frozen by the last
// tick, never a view taken mid-push. c.mu must be held.
func (c *Coordinator) publishLocked() {
	c.gen++
	scopes := make([]time.Duration, len(c.opts.TimelineScopes))
	copy(scopes, c.opts.TimelineScopes)

	s := &Snapshot{
		Generation: c.gen,
		Timestamp:  c.last.at,
		State:      c.restingState(),
		Paused:     c.paused.Load(),
		CPU:        c.last.cpu,
		GPU:        c.last.gpu,
		Memory:     c.last.mem,
		Processes:  c.last.procs,
		ProcessErr: c.last.processErr,
		History:    c.last.history,
		Sort:       c.sort,
		Filter:     c.filter,
		Scope:      c.scope,
		Scopes:     scopes,
		Scrollback: c.opts.Scrollback,
		Interval:   c.opts.Interval,
		Host:       c.host,
		Cores:      c.cpu.Cores(),
		visible:    c.last.procs.Visible(c.sort, c.filter),
	}
	c.snapshot.Store(s)
}

func (c *Coordinator) republish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked()
}

// Latest returns the most recently published snapshot. It never blocks on
// sampling and is never nil after NewCoordinator returns.
func (c *Coordinator) Latest() *Snapshot {
	return c.snapshot.Load()
}

// State returns the current lifecycle phase.
func (c *Coordinator) State() State {
	s := State(c.state.Load())
	if s == StateIdle && c.paused.Load() {
		return StatePaused
	}
	return s
}

// restingState is the state a published snapshot represents: sampling has
// finished, so the coordinator is idle or paused.
func (c *Coordinator) restingState() State {
	if c.paused.Load() {
		return StatePaused
	}
	return StateIdle
}

// GPU returns the GPU collector.
func (c *Coordinator) GPU() *GPUCollector {
	return c.gpu
}

// Pause stops future ticks from sampling. A tick in progress still publishes.
func (c *Coordinator) Pause() {
	c.paused.Store(true)
	c.republish()
}

// Resume re-enables sampling.
func (c *Coordinator) Resume() {
	c.paused.Store(false)
	c.republish()
}

// TogglePause flips the paused flag and reports the new value.
func (c *Coordinator) TogglePause() bool {
	if c.paused.Load() {
		c.Resume()
		return false
	}
	c.Pause()
	return true
}

// SetSortMode changes the process ordering.
func (c *Coordinator) SetSortMode(mode SortMode) error {
	if !mode.Valid() {
		return configError(fmt.Sprintf("unknown sort mode %d", mode))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = mode
	c.publishLocked()
	return nil
}

// CycleSortMode advances to the next sort mode and returns it.
func (c *Coordinator) CycleSortMode() SortMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.sort.Next()
	c.publishLocked()
	return c.sort
}

// SetFilter replaces the process filter.
func (c *Coordinator) SetFilter(f FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.publishLocked()
}

// SetTimelineScope changes the visible timeline width. History grows when
// the new scope needs more samples than it holds.
func (c *Coordinator) SetTimelineScope(scope time.Duration) error {
	if scope <= 0 {
		return configError(fmt.Sprintf("timeline scope must be positive, got %s", scope))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setScopeLocked(scope)
	c.publishLocked()
	return nil
}

// CycleTimelineScope moves to the next configured scope, wrapping around,
// and returns it. With no configured scopes the scope is unchanged.
func (c *Coordinator) CycleTimelineScope() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	scopes := c.opts.TimelineScopes
	if len(scopes) == 0 {
		return c.scope
	}
	next := scopes[0]
	for i, s := range scopes {
		if s == c.scope {
			next = scopes[(i+1)%len(scopes)]
			break
		}
	}
	c.setScopeLocked(next)
	c.publishLocked()
	return c.scope
}

func (c *Coordinator) setScopeLocked(scope time.Duration) {
	c.scope = scope
	want := historyCapacity(scope, c.opts.TimelineScopes, c.opts.Scrollback, c.opts.Interval)
	if want > c.history.Capacity() {
		c.history.Resize(want)
	}
}
