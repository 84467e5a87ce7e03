package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/oversee/internal/monitor"
)

// CPUCheck verifies that per-core CPU counters can be read.
type CPUCheck struct {
	Source monitor.CPUTimesSource
}

func (c *CPUCheck) Name() string     { return "cpu" }
func (c *CPUCheck) Category() string { return CategorySources }

func (c *CPUCheck) Run(ctx context.Context) CheckResult {
	cores, err := c.Source.Counts(ctx)
	if err == nil {
		_, err = c.Source.Times(ctx, true)
	}
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't read CPU counters: %v", err),
			Suggestion: "Check that /proc is mounted (Linux) or that oversee is not sandboxed",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("CPU counters readable (%d cores)", cores),
	}
}

func (c *CPUCheck) Fix() error { return nil }

// MemoryCheck verifies that memory and swap counters can be read.
type MemoryCheck struct {
	Source monitor.MemorySource
}

func (c *MemoryCheck) Name() string     { return "memory" }
func (c *MemoryCheck) Category() string { return CategorySources }

func (c *MemoryCheck) Run(ctx context.Context) CheckResult {
	vm, err := c.Source.VirtualMemory(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't read memory counters: %v", err),
			Suggestion: "The memory panel will stay empty until this is fixed",
		}
	}

	msg := fmt.Sprintf("%s total, %s available", humanize.IBytes(vm.Total), humanize.IBytes(vm.Available))
	if _, err := c.Source.SwapMemory(ctx); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    msg + fmt.Sprintf("; swap unreadable: %v", err),
			Suggestion: "Pressure is classified without swap usage",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: msg,
	}
}

func (c *MemoryCheck) Fix() error { return nil }

// PressureCheck reports whether the OS exposes a native memory pressure
// level. Without one the available/total ratio is used, which works but
// reacts later than the kernel signal.
type PressureCheck struct {
	Source monitor.PressureSource
}

func (c *PressureCheck) Name() string     { return "memory_pressure" }
func (c *PressureCheck) Category() string { return CategorySources }

func (c *PressureCheck) Run(ctx context.Context) CheckResult {
	raw, level, err := c.Source.Level(ctx)
	switch {
	case errors.Is(err, monitor.ErrNoKernelPressure):
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No kernel pressure signal, classifying by available memory ratio",
			Suggestion: "Linux needs PSI (CONFIG_PSI=y) for /proc/pressure/memory",
		}
	case err != nil:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Kernel pressure signal unreadable: %v", err),
			Suggestion: "Falling back to the available memory ratio",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Kernel pressure level: %s (raw %d)", level, raw),
	}
}

func (c *PressureCheck) Fix() error { return nil }

// ProcessCheck verifies that processes can be enumerated. The dashboard
// stops when this fails persistently, so a failure here is fatal.
type ProcessCheck struct {
	Source monitor.ProcessSource
}

func (c *ProcessCheck) Name() string     { return "processes" }
func (c *ProcessCheck) Category() string { return CategorySources }

func (c *ProcessCheck) Run(ctx context.Context) CheckResult {
	procs, err := c.Source.Processes(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't enumerate processes: %v", err),
			Suggestion: "Run oversee outside restricted sandboxes, or grant it permission to inspect processes",
		}
	}

	unnamed := 0
	for _, p := range procs {
		if p.User == "" {
			unnamed++
		}
	}
	if len(procs) > 0 && unnamed == len(procs) {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%d processes visible, but no owners could be resolved", len(procs)),
			Suggestion: "The USER column will be empty",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d processes visible", len(procs)),
	}
}

func (c *ProcessCheck) Fix() error { return nil }

// PortsCheck verifies that listening sockets can be mapped to processes.
type PortsCheck struct {
	Source monitor.PortSource
}

func (c *PortsCheck) Name() string     { return "ports" }
func (c *PortsCheck) Category() string { return CategorySources }

func (c *PortsCheck) Run(ctx context.Context) CheckResult {
	ports, err := c.Source.ListeningPorts(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Can't read socket tables: %v", err),
			Suggestion: "The PORTS column will be empty; other users' sockets may need elevated privileges",
		}
	}
	count := 0
	for _, p := range ports {
		count += len(p)
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d listening ports across %d processes", count, len(ports)),
	}
}

func (c *PortsCheck) Fix() error { return nil }

// NewSourceChecks returns the checks for every non-GPU data source.
func NewSourceChecks(src monitor.Sources) []Check {
	checks := []Check{
		&CPUCheck{Source: src.CPU},
		&MemoryCheck{Source: src.Memory},
	}
	if src.Pressure != nil {
		checks = append(checks, &PressureCheck{Source: src.Pressure})
	}
	checks = append(checks, &ProcessCheck{Source: src.Processes})
	if src.Ports != nil {
		checks = append(checks, &PortsCheck{Source: src.Ports})
	}
	return checks
}
