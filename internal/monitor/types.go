package monitor

import (
	"strconv"
	"time"
)

// MetricSample is one point of a timeline. Value is a percentage in [0,100].
type MetricSample struct {
	Timestamp time.Time
	Value     float64
}

// SeriesID names a history stream.
type SeriesID string

// Well-known series. Per-core streams use CoreSeries and GPUCoreSeries.
const (
	SeriesCPU    SeriesID = "cpu"
	SeriesGPU    SeriesID = "gpu"
	SeriesMemory SeriesID = "mem"
)

// CoreSeries returns the series ID of CPU core n.
func CoreSeries(n int) SeriesID {
	return SeriesID("cpu/" + strconv.Itoa(n))
}

// GPUCoreSeries returns the series ID of GPU unit n.
func GPUCoreSeries(n int) SeriesID {
	return SeriesID("gpu/" + strconv.Itoa(n))
}

// SourceStatus describes the quality of a collector result.
type SourceStatus int

const (
	// StatusOK means the value was freshly measured.
	StatusOK SourceStatus = iota
	// StatusStale means the measurement failed and the last good value was reused.
	StatusStale
	// StatusDegraded means the source is unavailable and the value is a placeholder.
	StatusDegraded
)

// String returns a short label for display.
func (s SourceStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStale:
		return "stale"
	case StatusDegraded:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result wraps a collector reading with its status and the error that caused
// a stale or degraded status, if any.
type Result[T any] struct {
	Value  T
	Status SourceStatus
	Err    error
}

// CPUReading is the output of one CPU collector poll.
type CPUReading struct {
	Overall float64
	PerCore []float64
}

// GPUReading is the output of the GPU collector. When Available is false all
// values are zero and must not be read as a measured 0%.
type GPUReading struct {
	Overall   float64
	PerCore   []float64
	Available bool
	Source    string
	Name      string
	// ActivePIDs lists processes the source reported as using the GPU.
	ActivePIDs []int32
	SampledAt  time.Time
}

// GPUUsage is what a single GPUSource returns.
type GPUUsage struct {
	Name       string
	Overall    float64
	PerCore    []float64
	ActivePIDs []int32
}

// MemoryReading is the output of one memory collector poll.
type MemoryReading struct {
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64
	SwapTotalBytes uint64
	SwapUsedBytes  uint64
	Status         MemoryStatus
}

// UsedPercent returns used memory as a percentage of total.
func (m MemoryReading) UsedPercent() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return float64(m.UsedBytes) / float64(m.TotalBytes) * 100
}

// SwapPercent returns used swap as a percentage of total swap.
func (m MemoryReading) SwapPercent() float64 {
	if m.SwapTotalBytes == 0 {
		return 0
	}
	return float64(m.SwapUsedBytes) / float64(m.SwapTotalBytes) * 100
}

// HostInfo contains general information about the local machine.
type HostInfo struct {
	Hostname string
	OS       string
	Platform string
	Kernel   string
	Uptime   time.Duration
}

func clampPercent(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
