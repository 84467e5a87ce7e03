package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemorySource supplies virtual memory and swap counters.
type MemorySource interface {
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
}

// PressureSource supplies the native kernel memory pressure level. raw is the
// unmapped OS value. Sources without a native signal return ErrNoKernelPressure.
type PressureSource interface {
	Level(ctx context.Context) (raw int, level PressureLevel, err error)
}

// MemoryCollector reads memory counters and classifies pressure.
// It must only be called from one goroutine.
type MemoryCollector struct {
	mem      MemorySource
	pressure PressureSource

	last MemoryReading
}

// NewMemoryCollector creates a collector. pressure may be nil, in which case
// only the available-ratio fallback is used.
func NewMemoryCollector(src MemorySource, pressure PressureSource) *MemoryCollector {
	return &MemoryCollector{mem: src, pressure: pressure}
}

// Sample polls memory counters. On failure the last good reading is returned
// with StatusStale.
func (c *MemoryCollector) Sample(ctx context.Context) Result[MemoryReading] {
	vm, err := c.mem.VirtualMemory(ctx)
	if err == nil && (vm == nil || vm.Total == 0) {
		err = fmt.Errorf("virtual memory total is zero")
	}
	if err != nil {
		return Result[MemoryReading]{Value: c.last, Status: StatusStale, Err: fmt.Errorf("read virtual memory: %w", err)}
	}

	reading := MemoryReading{
		TotalBytes:     vm.Total,
		UsedBytes:      vm.Used,
		AvailableBytes: vm.Available,
	}

	// Missing swap is common (containers, swapless hosts) and not a failure.
	if swap, err := c.mem.SwapMemory(ctx); err == nil && swap != nil {
		reading.SwapTotalBytes = swap.Total
		reading.SwapUsedBytes = swap.Used
	}

	sig := PressureSignal{
		Ratio: AvailableRatio(reading.AvailableBytes, reading.TotalBytes, reading.SwapUsedBytes, reading.SwapTotalBytes),
	}
	var pressureErr error
	if c.pressure != nil {
		raw, level, err := c.pressure.Level(ctx)
		switch {
		case err == nil:
			sig.HasKernelLevel = true
			sig.KernelLevel = level
			sig.RawKernelLevel = raw
		case !errors.Is(err, ErrNoKernelPressure):
			pressureErr = fmt.Errorf("read kernel memory pressure: %w", err)
		}
	}
	reading.Status = ClassifyPressure(sig)

	c.last = reading
	return Result[MemoryReading]{Value: reading, Status: StatusOK, Err: pressureErr}
}
