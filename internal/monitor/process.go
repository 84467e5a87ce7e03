package monitor

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ProcessSource enumerates every running process. Each call is a fresh full
// snapshot. A source that can never work returns an error wrapping
// ErrSourceUnavailable.
type ProcessSource interface {
	Processes(ctx context.Context) ([]RawProcess, error)
}

// RawProcess is one enumeration entry. CPUTime is the cumulative user+system
// time; CreateTime (ms since epoch) detects pid reuse.
type RawProcess struct {
	PID         int32
	Name        string
	User        string
	Command     string
	CPUTime     time.Duration
	MemoryBytes uint64
	CreateTime  int64
	Ports       []uint16
}

// ProcessRecord is a process with derived metrics.
//
// GPUPercentEstimate is an estimate: the OS exposes no per-process GPU
// counter, so the measured total is split across GPU-active processes in
// proportion to their CPU usage.
type ProcessRecord struct {
	PID                int32
	Name               string
	User               string
	Command            string
	CPUPercent         float64
	MemoryBytes        uint64
	GPUPercentEstimate float64
	CPUTime            time.Duration
	CreateTime         int64
	Ports              []uint16
}

// ProcessOptions controls derived field computation.
type ProcessOptions struct {
	// NormalizeByCores divides CPU percent by Cores so 100% means the whole machine.
	NormalizeByCores bool
	Cores            int
	// GPUTotal is the measured overall GPU utilization to distribute.
	GPUTotal float64
	// GPUActive reports whether a process is using the GPU. Nil means none.
	GPUActive func(ProcessRecord) bool
}

// ProcessSnapshot is the full pid to record mapping for one tick.
// It is never modified after construction.
type ProcessSnapshot struct {
	Generation uint64
	Timestamp  time.Time
	records    map[int32]ProcessRecord
}

// Len returns the number of processes.
func (s *ProcessSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Get returns the record for pid.
func (s *ProcessSnapshot) Get(pid int32) (ProcessRecord, bool) {
	if s == nil {
		return ProcessRecord{}, false
	}
	r, ok := s.records[pid]
	return r, ok
}

// BuildProcessSnapshot derives a new snapshot from the previous one and a
// fresh enumeration. Generation is prev+1 (1 for the first snapshot). Pids
// missing from raw are dropped. When raw lists a pid twice the first entry wins.
func BuildProcessSnapshot(prev *ProcessSnapshot, raw []RawProcess, at time.Time, opts ProcessOptions) *ProcessSnapshot {
	var gen uint64 = 1
	var wall time.Duration
	if prev != nil {
		gen = prev.Generation + 1
		wall = at.Sub(prev.Timestamp)
	}

	records := make([]ProcessRecord, 0, len(raw))
	seen := make(map[int32]bool, len(raw))
	for _, p := range raw {
		if seen[p.PID] {
			continue
		}
		seen[p.PID] = true

		rec := ProcessRecord{
			PID:         p.PID,
			Name:        p.Name,
			User:        p.User,
			Command:     p.Command,
			MemoryBytes: p.MemoryBytes,
			CPUTime:     p.CPUTime,
			CreateTime:  p.CreateTime,
			Ports:       p.Ports,
		}
		if old, ok := prev.Get(p.PID); ok {
			rec.CPUPercent = cpuPercent(old, p, wall, opts)
		}
		records = append(records, rec)
	}

	records = AttributeGPU(records, opts.GPUTotal, opts.GPUActive)

	byPID := make(map[int32]ProcessRecord, len(records))
	for _, r := range records {
		byPID[r.PID] = r
	}
	return &ProcessSnapshot{Generation: gen, Timestamp: at, records: byPID}
}

// cpuPercent is the CPU time delta over the wall time delta. It is zero when
// the pid was reused, the counter went backwards or no wall time elapsed.
func cpuPercent(old ProcessRecord, cur RawProcess, wall time.Duration, opts ProcessOptions) float64 {
	if wall <= 0 {
		return 0
	}
	if old.CreateTime != 0 && cur.CreateTime != 0 && old.CreateTime != cur.CreateTime {
		return 0
	}
	delta := cur.CPUTime - old.CPUTime
	if delta <= 0 {
		return 0
	}
	pct := delta.Seconds() / wall.Seconds() * 100
	if opts.NormalizeByCores && opts.Cores > 0 {
		pct /= float64(opts.Cores)
	}
	return pct
}

// AttributeGPU returns a copy of records with GPUPercentEstimate set. The
// total is split across GPU-active records weighted by CPUPercent, or evenly
// when every active record has zero CPU. Inactive records get zero.
func AttributeGPU(records []ProcessRecord, total float64, isActive func(ProcessRecord) bool) []ProcessRecord {
	out := make([]ProcessRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].GPUPercentEstimate = 0
	}
	if isActive == nil || !(total > 0) {
		return out
	}

	var active []int
	var weight float64
	for i, r := range out {
		if isActive(r) {
			active = append(active, i)
			weight += r.CPUPercent
		}
	}
	if len(active) == 0 {
		return out
	}
	for _, i := range active {
		if weight > 0 {
			out[i].GPUPercentEstimate = total * out[i].CPUPercent / weight
		} else {
			out[i].GPUPercentEstimate = total / float64(len(active))
		}
	}
	return out
}

// DefaultGPUHints are process name fragments that indicate GPU work when the
// GPU source does not report per-process usage.
var DefaultGPUHints = []string{
	"WindowServer", "Renderer", "GPU", "VTDecoder", "VideoToolbox",
	"Xorg", "gnome-shell", "kwin",
}

// GPUActivity decides which processes count as GPU-active: pids reported by
// the GPU source, or names containing one of the hints.
type GPUActivity struct {
	PIDs  map[int32]bool
	Hints []string
}

// NewGPUActivity builds a predicate from reported pids and name hints.
func NewGPUActivity(pids []int32, hints []string) GPUActivity {
	set := make(map[int32]bool, len(pids))
	for _, p := range pids {
		set[p] = true
	}
	lower := make([]string, 0, len(hints))
	for _, h := range hints {
		if h = strings.TrimSpace(h); h != "" {
			lower = append(lower, strings.ToLower(h))
		}
	}
	return GPUActivity{PIDs: set, Hints: lower}
}

// Active reports whether r is GPU-active.
func (a GPUActivity) Active(r ProcessRecord) bool {
	if a.PIDs[r.PID] {
		return true
	}
	name := strings.ToLower(r.Name)
	for _, h := range a.Hints {
		if strings.Contains(name, h) {
			return true
		}
	}
	return false
}

// SortMode selects the process table ordering. Ties are always broken by
// pid ascending so the order is total and stable across ticks.
type SortMode int

const (
	SortByCPU SortMode = iota
	SortByMemory
	SortByName
	SortByPID
)

var sortModeNames = []string{"cpu", "memory", "name", "pid"}

// String returns the configuration name of the mode.
func (s SortMode) String() string {
	if s < 0 || int(s) >= len(sortModeNames) {
		return "unknown"
	}
	return sortModeNames[s]
}

// Next cycles to the next sort mode.
func (s SortMode) Next() SortMode {
	return SortMode((int(s) + 1) % len(sortModeNames))
}

// Valid reports whether s is a known mode.
func (s SortMode) Valid() bool {
	return s >= 0 && int(s) < len(sortModeNames)
}

// ParseSortMode parses a configuration name. Unknown names are an error.
func ParseSortMode(name string) (SortMode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "mem" {
		n = "memory"
	}
	for i, s := range sortModeNames {
		if s == n {
			return SortMode(i), nil
		}
	}
	return SortByCPU, fmt.Errorf("unknown sort mode %q (expected one of %s)", name, strings.Join(sortModeNames, ", "))
}

// less orders a before b under mode, falling back to pid.
func (s SortMode) less(a, b ProcessRecord) bool {
	switch s {
	case SortByCPU:
		if a.CPUPercent != b.CPUPercent {
			return a.CPUPercent > b.CPUPercent
		}
	case SortByMemory:
		if a.MemoryBytes != b.MemoryBytes {
			return a.MemoryBytes > b.MemoryBytes
		}
	case SortByName:
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
	}
	return a.PID < b.PID
}

// FilterMode is the lifecycle of the filter query in the UI.
type FilterMode int

const (
	// FilterNone shows every process.
	FilterNone FilterMode = iota
	// FilterActive means the query is being edited and applies live.
	FilterActive
	// FilterApplied means the query was confirmed.
	FilterApplied
)

// FilterState is the process filter owned by the UI.
type FilterState struct {
	Query string
	Mode  FilterMode
}

// Enabled reports whether the filter restricts the visible set.
func (f FilterState) Enabled() bool {
	return f.Mode != FilterNone && strings.TrimSpace(f.Query) != ""
}

// matcher is a prepared filter query.
type matcher struct {
	query   string
	numeric bool
}

func newMatcher(query string) matcher {
	q := strings.ToLower(strings.TrimSpace(query))
	_, err := strconv.ParseUint(q, 10, 64)
	return matcher{query: q, numeric: err == nil}
}

// match checks name and user case-insensitively. A numeric query also
// matches pids and ports containing its digits, so "80" finds :8080.
func (m matcher) match(r ProcessRecord) bool {
	if strings.Contains(strings.ToLower(r.Name), m.query) ||
		strings.Contains(strings.ToLower(r.User), m.query) {
		return true
	}
	if !m.numeric {
		return false
	}
	if strings.Contains(strconv.FormatInt(int64(r.PID), 10), m.query) {
		return true
	}
	for _, p := range r.Ports {
		if strings.Contains(strconv.FormatUint(uint64(p), 10), m.query) {
			return true
		}
	}
	return false
}

// Visible returns the filtered records ordered by mode. The snapshot is not
// modified, so any number of views can be taken from it.
func (s *ProcessSnapshot) Visible(mode SortMode, filter FilterState) []ProcessRecord {
	if s == nil {
		return nil
	}
	out := make([]ProcessRecord, 0, len(s.records))
	if filter.Enabled() {
		m := newMatcher(filter.Query)
		for _, r := range s.records {
			if m.match(r) {
				out = append(out, r)
			}
		}
	} else {
		for _, r := range s.records {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return mode.less(out[i], out[j])
	})
	return out
}

// ProcessTable owns the current process snapshot. It is only written by the
// coordinator's sampling goroutine.
type ProcessTable struct {
	opts    ProcessOptions
	hints   []string
	current *ProcessSnapshot
}

// NewProcessTable creates an empty table.
func NewProcessTable(normalizeByCores bool, cores int, gpuHints []string) *ProcessTable {
	return &ProcessTable{
		opts:  ProcessOptions{NormalizeByCores: normalizeByCores, Cores: cores},
		hints: gpuHints,
	}
}

// Refresh builds the next snapshot from a fresh enumeration and the current
// GPU total, and makes it current.
func (t *ProcessTable) Refresh(raw []RawProcess, at time.Time, gpuTotal float64, gpuPIDs []int32) *ProcessSnapshot {
	opts := t.opts
	opts.GPUTotal = gpuTotal
	opts.GPUActive = NewGPUActivity(gpuPIDs, t.hints).Active
	t.current = BuildProcessSnapshot(t.current, raw, at, opts)
	return t.current
}

// Current returns the current snapshot, nil before the first refresh.
func (t *ProcessTable) Current() *ProcessSnapshot {
	return t.current
}

// Visible projects the current snapshot.
func (t *ProcessTable) Visible(mode SortMode, filter FilterState) []ProcessRecord {
	return t.current.Visible(mode, filter)
}
