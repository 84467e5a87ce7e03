// Package testing provides test doubles for the monitor package sources.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// FakeCPU is a CPUTimesSource with counters advanced by hand.
type FakeCPU struct {
	mu      sync.Mutex
	cores   int
	perCore []cpu.TimesStat
	err     error

	// Calls counts Times invocations.
	Calls int
}

// NewFakeCPU creates a fake with the given core count and zeroed counters.
func NewFakeCPU(cores int) *FakeCPU {
	return &FakeCPU{cores: cores, perCore: make([]cpu.TimesStat, cores)}
}

// Advance adds seconds of time to every core, busyPercent of it as user time.
func (f *FakeCPU) Advance(seconds, busyPercent float64) *FakeCPU {
	f.mu.Lock()
	defer f.mu.Unlock()
	busy := seconds * busyPercent / 100
	for i := range f.perCore {
		f.perCore[i].User += busy
		f.perCore[i].Idle += seconds - busy
	}
	return f
}

// AdvanceCore adds time to one core only.
func (f *FakeCPU) AdvanceCore(core int, seconds, busyPercent float64) *FakeCPU {
	f.mu.Lock()
	defer f.mu.Unlock()
	busy := seconds * busyPercent / 100
	f.perCore[core].User += busy
	f.perCore[core].Idle += seconds - busy
	return f
}

// SetErr makes Times fail with err until cleared with nil.
func (f *FakeCPU) SetErr(err error) *FakeCPU {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

func (f *FakeCPU) Counts(ctx context.Context) (int, error) {
	return f.cores, nil
}

func (f *FakeCPU) Times(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.err != nil {
		return nil, f.err
	}
	if perCPU {
		out := make([]cpu.TimesStat, len(f.perCore))
		copy(out, f.perCore)
		return out, nil
	}
	total := cpu.TimesStat{CPU: "cpu-total"}
	for _, t := range f.perCore {
		total.User += t.User
		total.Idle += t.Idle
	}
	return []cpu.TimesStat{total}, nil
}

// FakeMemory is a MemorySource returning fixed counters.
type FakeMemory struct {
	mu      sync.Mutex
	vm      mem.VirtualMemoryStat
	swap    mem.SwapMemoryStat
	err     error
	swapErr error
}

// NewFakeMemory creates a fake with total and available bytes and no swap.
func NewFakeMemory(total, available uint64) *FakeMemory {
	return &FakeMemory{vm: mem.VirtualMemoryStat{Total: total, Available: available, Used: total - available}}
}

// Set replaces total and available bytes.
func (f *FakeMemory) Set(total, available uint64) *FakeMemory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vm = mem.VirtualMemoryStat{Total: total, Available: available, Used: total - available}
	return f
}

// SetSwap replaces the swap counters.
func (f *FakeMemory) SetSwap(total, used uint64) *FakeMemory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swap = mem.SwapMemoryStat{Total: total, Used: used}
	return f
}

// SetErr makes VirtualMemory fail.
func (f *FakeMemory) SetErr(err error) *FakeMemory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// SetSwapErr makes SwapMemory fail.
func (f *FakeMemory) SetSwapErr(err error) *FakeMemory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapErr = err
	return f
}

func (f *FakeMemory) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	vm := f.vm
	return &vm, nil
}

func (f *FakeMemory) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	s := f.swap
	return &s, nil
}

// FakePressure is a PressureSource with a fixed answer.
type FakePressure struct {
	Raw           int
	PressureLevel monitor.PressureLevel
	Err           error
}

func (f FakePressure) Level(ctx context.Context) (int, monitor.PressureLevel, error) {
	return f.Raw, f.PressureLevel, f.Err
}

// FakeProcesses is a ProcessSource returning a settable process list.
type FakeProcesses struct {
	mu    sync.Mutex
	procs []monitor.RawProcess
	err   error
	calls int
}

// NewFakeProcesses creates a fake listing procs.
func NewFakeProcesses(procs ...monitor.RawProcess) *FakeProcesses {
	return &FakeProcesses{procs: procs}
}

// Set replaces the process list.
func (f *FakeProcesses) Set(procs ...monitor.RawProcess) *FakeProcesses {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs = procs
	return f
}

// SetErr makes Processes fail with err until cleared with nil.
func (f *FakeProcesses) SetErr(err error) *FakeProcesses {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Calls returns how many times Processes was called.
func (f *FakeProcesses) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeProcesses) Processes(ctx context.Context) ([]monitor.RawProcess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]monitor.RawProcess, len(f.procs))
	copy(out, f.procs)
	return out, nil
}

// FakePorts is a PortSource returning a settable map.
type FakePorts struct {
	mu    sync.Mutex
	ports map[int32][]uint16
	err   error
	calls int
}

// NewFakePorts creates a fake returning ports.
func NewFakePorts(ports map[int32][]uint16) *FakePorts {
	return &FakePorts{ports: ports}
}

// SetErr makes ListeningPorts fail.
func (f *FakePorts) SetErr(err error) *FakePorts {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// Calls returns how many times ListeningPorts was called.
func (f *FakePorts) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakePorts) ListeningPorts(ctx context.Context) (map[int32][]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ports, nil
}

// FakeGPU is a GPUSource with a settable reading.
type FakeGPU struct {
	mu    sync.Mutex
	name  string
	usage monitor.GPUUsage
	err   error
	delay time.Duration
}

// NewFakeGPU creates a fake source reporting usage.
func NewFakeGPU(name string, usage monitor.GPUUsage) *FakeGPU {
	return &FakeGPU{name: name, usage: usage}
}

// Set replaces the reported usage and clears any error.
func (f *FakeGPU) Set(usage monitor.GPUUsage) *FakeGPU {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = usage
	f.err = nil
	return f
}

// SetErr makes Sample fail with err.
func (f *FakeGPU) SetErr(err error) *FakeGPU {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// SetDelay makes Sample block for d or until its context is done.
func (f *FakeGPU) SetDelay(d time.Duration) *FakeGPU {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

func (f *FakeGPU) Name() string {
	return f.name
}

func (f *FakeGPU) Sample(ctx context.Context) (monitor.GPUUsage, error) {
	f.mu.Lock()
	delay, usage, err := f.delay, f.usage, f.err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return monitor.GPUUsage{}, ctx.Err()
		}
	}
	return usage, err
}

// Clock is a manually advanced clock for Options.Now.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
