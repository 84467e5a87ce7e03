package monitor

import "time"

// State is the coordinator lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateSampling
	StatePublishing
	StatePaused
)

// String returns a lowercase label.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StatePublishing:
		return "publishing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is everything the renderer needs for one frame. It is built once
// by the coordinator and never modified after it is published.
type Snapshot struct {
	Generation uint64
	Timestamp  time.Time
	State      State
	Paused     bool

	CPU    Result[CPUReading]
	GPU    Result[GPUReading]
	Memory Result[MemoryReading]

	// Processes is nil until the first successful enumeration.
	Processes  *ProcessSnapshot
	ProcessErr error

	History HistoryView

	Sort       SortMode
	Filter     FilterState
	Scope      time.Duration
	Scopes     []time.Duration
	Scrollback time.Duration
	Interval   time.Duration

	Host  HostInfo
	Cores int

	visible []ProcessRecord
}

// Window returns the samples of id covering scope, ending offset before the
// newest sample.
func (s *Snapshot) Window(id SeriesID, scope, offset time.Duration) []MetricSample {
	if s == nil {
		return nil
	}
	return s.History.Window(id, scope, offset)
}

// VisibleProcesses returns the filtered and sorted process list. The slice is
// a copy and may be modified by the caller.
func (s *Snapshot) VisibleProcesses() []ProcessRecord {
	if s == nil {
		return nil
	}
	out := make([]ProcessRecord, len(s.visible))
	copy(out, s.visible)
	return out
}

// VisibleCount returns the number of processes passing the filter.
func (s *Snapshot) VisibleCount() int {
	if s == nil {
		return 0
	}
	return len(s.visible)
}
