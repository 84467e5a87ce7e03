package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/rileyhilliard/oversee/internal/monitor/parsers"
)

// GPU source names accepted in configuration.
const (
	GPUSourceNvidia       = "nvidia-smi"
	GPUSourcePowermetrics = "powermetrics"
	GPUSourceIoreg        = "ioreg"
)

// KnownGPUSources lists every GPU source name in default probe order.
var KnownGPUSources = []string{GPUSourceNvidia, GPUSourcePowermetrics, GPUSourceIoreg}

// commandRunner runs an external tool and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%s not installed: %w", name, ErrGPUUnavailable)
	}
	return out, err
}

// NewGPUSources builds the named sources in the given order. Unknown names
// are rejected.
func NewGPUSources(names []string) ([]GPUSource, error) {
	sources := make([]GPUSource, 0, len(names))
	for _, name := range names {
		switch name {
		case GPUSourceNvidia:
			sources = append(sources, &NvidiaSource{run: runCommand})
		case GPUSourcePowermetrics:
			sources = append(sources, &PowermetricsSource{run: runCommand, goos: runtime.GOOS, euid: os.Geteuid})
		case GPUSourceIoreg:
			sources = append(sources, &IoregSource{run: runCommand, goos: runtime.GOOS})
		default:
			return nil, fmt.Errorf("unknown gpu source %q", name)
		}
	}
	return sources, nil
}

// NvidiaSource reads per-device utilization from nvidia-smi. Each device is
// one entry of the per-core vector; overall is the device mean.
type NvidiaSource struct {
	run commandRunner
}

func (s *NvidiaSource) Name() string { return GPUSourceNvidia }

func (s *NvidiaSource) Sample(ctx context.Context) (GPUUsage, error) {
	out, err := s.run(ctx, "nvidia-smi", parsers.NvidiaQueryArgs...)
	if err != nil {
		return GPUUsage{}, err
	}
	gpus, err := parsers.ParseNvidiaSMI(string(out))
	if err != nil {
		return GPUUsage{}, err
	}
	if len(gpus) == 0 {
		return GPUUsage{}, fmt.Errorf("nvidia-smi reports no device: %w", ErrGPUUnavailable)
	}

	usage := GPUUsage{Name: gpus[0].Name, PerCore: make([]float64, len(gpus))}
	var sum float64
	for i, g := range gpus {
		usage.PerCore[i] = g.Utilization
		sum += g.Utilization
	}
	usage.Overall = sum / float64(len(gpus))

	// Compute-app pids are best effort; utilization is still valid without them.
	if apps, err := s.run(ctx, "nvidia-smi", parsers.NvidiaComputeAppsArgs...); err == nil {
		usage.ActivePIDs = parsers.ParseNvidiaComputePIDs(string(apps))
	}
	return usage, nil
}

// PowermetricsSource reads GPU active residency from powermetrics.
// It only runs as root on macOS.
type PowermetricsSource struct {
	run  commandRunner
	goos string
	euid func() int
}

func (s *PowermetricsSource) Name() string { return GPUSourcePowermetrics }

func (s *PowermetricsSource) Sample(ctx context.Context) (GPUUsage, error) {
	if s.goos != "darwin" {
		return GPUUsage{}, fmt.Errorf("powermetrics needs macOS: %w", ErrGPUUnavailable)
	}
	if s.euid() != 0 {
		return GPUUsage{}, fmt.Errorf("powermetrics needs root: %w", ErrGPUUnavailable)
	}
	out, err := s.run(ctx, "powermetrics", parsers.PowermetricsArgs...)
	if err != nil {
		return GPUUsage{}, err
	}
	active, err := parsers.ParsePowermetricsGPU(string(out))
	if err != nil {
		return GPUUsage{}, err
	}
	return GPUUsage{Name: "Apple GPU", Overall: active}, nil
}

// IoregSource reads the Apple Silicon GPU "Device Utilization %" statistic.
// It needs no privilege but only reports an aggregate value.
type IoregSource struct {
	run  commandRunner
	goos string
}

func (s *IoregSource) Name() string { return GPUSourceIoreg }

func (s *IoregSource) Sample(ctx context.Context) (GPUUsage, error) {
	if s.goos != "darwin" {
		return GPUUsage{}, fmt.Errorf("ioreg needs macOS: %w", ErrGPUUnavailable)
	}
	out, err := s.run(ctx, "ioreg", parsers.IoregArgs...)
	if err != nil {
		return GPUUsage{}, err
	}
	gpu, ok := parsers.ParseAppleGPU(string(out))
	if !ok {
		return GPUUsage{}, fmt.Errorf("no IOAccelerator statistics: %w", ErrGPUUnavailable)
	}
	return GPUUsage{Name: gpu.Model, Overall: gpu.Utilization}, nil
}
