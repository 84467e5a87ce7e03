package monitor

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUTimesSource supplies cumulative CPU time counters.
type CPUTimesSource interface {
	// Counts returns the number of logical cores.
	Counts(ctx context.Context) (int, error)
	// Times returns one aggregate entry, or one entry per core when perCPU is set.
	Times(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error)
}

// cpuTicks stores cumulative times for delta calculation.
type cpuTicks struct {
	total float64
	idle  float64
}

func ticksOf(t cpu.TimesStat) cpuTicks {
	return cpuTicks{
		total: t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal,
		idle:  t.Idle + t.Iowait,
	}
}

// busyPercent returns utilization between two readings, or 0 when the
// counters did not advance (first poll, counter reset).
func busyPercent(prev, cur cpuTicks) float64 {
	dt := cur.total - prev.total
	if dt <= 0 {
		return 0
	}
	di := cur.idle - prev.idle
	return clampPercent(100 * (1 - di/dt))
}

// CPUCollector computes overall and per-core utilization from counter deltas.
// It is stateful and must only be called from one goroutine.
type CPUCollector struct {
	src   CPUTimesSource
	cores int

	hasPrev   bool
	prevTotal cpuTicks
	prevCore  []cpuTicks

	last CPUReading
}

// NewCPUCollector creates a collector. The core count is fixed here and the
// per-core vector always has that length.
func NewCPUCollector(ctx context.Context, src CPUTimesSource) (*CPUCollector, error) {
	cores, err := src.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count cpu cores: %w", err)
	}
	if cores <= 0 {
		return nil, fmt.Errorf("invalid cpu core count %d", cores)
	}
	return &CPUCollector{
		src:      src,
		cores:    cores,
		prevCore: make([]cpuTicks, cores),
		last:     CPUReading{PerCore: make([]float64, cores)},
	}, nil
}

// Cores returns the fixed core count.
func (c *CPUCollector) Cores() int {
	return c.cores
}

// Sample polls the counters. The first call returns zeros. On failure the
// last good reading is returned with StatusStale.
func (c *CPUCollector) Sample(ctx context.Context) Result[CPUReading] {
	total, err := c.src.Times(ctx, false)
	if err == nil && len(total) == 0 {
		err = fmt.Errorf("no aggregate cpu times")
	}
	if err != nil {
		return Result[CPUReading]{Value: c.lastCopy(), Status: StatusStale, Err: fmt.Errorf("read cpu times: %w", err)}
	}
	perCore, err := c.src.Times(ctx, true)
	if err != nil {
		return Result[CPUReading]{Value: c.lastCopy(), Status: StatusStale, Err: fmt.Errorf("read per-core cpu times: %w", err)}
	}

	cur := ticksOf(total[0])
	reading := CPUReading{PerCore: make([]float64, c.cores)}
	if c.hasPrev {
		reading.Overall = busyPercent(c.prevTotal, cur)
	}
	c.prevTotal = cur

	for i := 0; i < c.cores && i < len(perCore); i++ {
		t := ticksOf(perCore[i])
		if c.hasPrev {
			reading.PerCore[i] = busyPercent(c.prevCore[i], t)
		}
		c.prevCore[i] = t
	}

	c.hasPrev = true
	c.last = reading
	return Result[CPUReading]{Value: c.lastCopy(), Status: StatusOK}
}

func (c *CPUCollector) lastCopy() CPUReading {
	out := CPUReading{Overall: c.last.Overall, PerCore: make([]float64, len(c.last.PerCore))}
	copy(out.PerCore, c.last.PerCore)
	return out
}
