// Package monitor samples CPU, GPU, memory and process metrics of the local
// machine and publishes them as immutable snapshots.
//
// # Architecture
//
// A Coordinator owns the sampling cycle. Each tick it runs the CPU, memory
// and process collectors in parallel, reads the GPU collector's cached value,
// appends to the history ring buffers and publishes a new Snapshot through an
// atomic pointer. The renderer (see the dashboard subpackage) reads Latest()
// at its own frame rate and never waits for a probe.
//
// # Key Components
//
//	CPUCollector     - utilization from cumulative cpu time deltas
//	GPUCollector     - polls nvidia-smi, powermetrics or ioreg in its own goroutine
//	MemoryCollector  - usage plus a pressure level (kernel signal or available ratio)
//	History          - fixed capacity series per metric with zero-copy views
//	ProcessTable     - per-process CPU %, GPU estimate, sort and filter
//	Coordinator      - tick loop, pause, view settings, snapshot publishing
//
// # Sources
//
// Collectors read through small interfaces (CPUTimesSource, MemorySource,
// ProcessSource, PortSource, PressureSource, GPUSource). HostSources wires
// the gopsutil implementations; the testing subpackage provides fakes.
//
// # Degradation
//
// A collector that fails keeps its last good value and reports StatusStale.
// A GPU with no working source reports zeros, Available=false and
// StatusDegraded, which the dashboard renders as "unavailable". Only a
// process source that cannot enumerate at all stops the coordinator.
//
// # History
//
// Series are sized to cover the widest timeline scope plus the scroll-back
// distance. Default scope is 60s with 900s of scroll-back at a 1s interval.
package monitor
