package monitor

import (
	"sort"
	"sync"
	"time"
)

// DefaultHistorySize is the default number of samples retained per series
// (20 minutes at the default 1s interval).
const DefaultHistorySize = 1200

// Series is a fixed-capacity FIFO of samples.
//
// Samples live in an append-only window over a backing array of at most twice
// the capacity. Eviction advances the window start and compaction copies the
// live window into a fresh array, so slices returned by view are never written
// again and can be handed to readers without copying.
type Series struct {
	capacity int
	buf      []MetricSample
	start    int
}

// NewSeries creates an empty series holding at most capacity samples.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Series{
		capacity: capacity,
		buf:      make([]MetricSample, 0, 2*capacity),
	}
}

// Push appends s, evicting the oldest sample when the series is full.
// A sample older than the newest stored one is rejected with ErrOutOfOrder.
func (s *Series) Push(sample MetricSample) error {
	if n := len(s.buf); n > s.start && sample.Timestamp.Before(s.buf[n-1].Timestamp) {
		return ErrOutOfOrder
	}
	if s.Len() == s.capacity {
		s.start++
	}
	if len(s.buf) == cap(s.buf) {
		s.compact(2 * s.capacity)
	}
	s.buf = append(s.buf, sample)
	return nil
}

// Len returns the number of stored samples.
func (s *Series) Len() int {
	return len(s.buf) - s.start
}

// Capacity returns the maximum number of samples kept.
func (s *Series) Capacity() int {
	return s.capacity
}

// Resize changes the capacity. Shrinking keeps the newest samples, growing
// keeps everything.
func (s *Series) Resize(capacity int) {
	if capacity <= 0 || capacity == s.capacity {
		return
	}
	s.capacity = capacity
	if s.Len() > capacity {
		s.start = len(s.buf) - capacity
	}
	s.compact(2 * capacity)
}

// compact moves the live window into a new backing array of size n.
func (s *Series) compact(n int) {
	next := make([]MetricSample, s.Len(), n)
	copy(next, s.buf[s.start:])
	s.buf = next
	s.start = 0
}

// view returns the live window capped so appends cannot reach it.
func (s *Series) view() []MetricSample {
	end := len(s.buf)
	return s.buf[s.start:end:end]
}

// History holds one Series per SeriesID, all sharing the same capacity.
// It is written by the coordinator; readers use a frozen HistoryView.
type History struct {
	mu       sync.RWMutex
	capacity int
	series   map[SeriesID]*Series
}

// NewHistory creates a history whose series hold capacity samples each.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		capacity: capacity,
		series:   make(map[SeriesID]*Series),
	}
}

// Push appends a sample to the series, creating it on first use.
func (h *History) Push(id SeriesID, sample MetricSample) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.series[id]
	if !ok {
		s = NewSeries(h.capacity)
		h.series[id] = s
	}
	return s.Push(sample)
}

// Slice returns the most recent samples whose timestamp lies within d of the
// newest sample, oldest first. Fewer are returned when history is shorter.
func (h *History) Slice(id SeriesID, d time.Duration) []MetricSample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.series[id]
	if !ok {
		return nil
	}
	return sliceWithin(s.view(), d)
}

// Last returns the last n samples of a series, oldest first.
func (h *History) Last(id SeriesID, n int) []MetricSample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.series[id]
	if !ok || n <= 0 {
		return nil
	}
	v := s.view()
	if n > len(v) {
		n = len(v)
	}
	return v[len(v)-n:]
}

// Len returns the number of samples stored for a series.
func (h *History) Len(id SeriesID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if s, ok := h.series[id]; ok {
		return s.Len()
	}
	return 0
}

// Capacity returns the per-series capacity.
func (h *History) Capacity() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.capacity
}

// Resize changes the capacity of every series.
func (h *History) Resize(capacity int) {
	if capacity <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.capacity = capacity
	for _, s := range h.series {
		s.Resize(capacity)
	}
}

// Freeze returns an immutable view of every series at this instant.
func (h *History) Freeze() HistoryView {
	h.mu.RLock()
	defer h.mu.RUnlock()

	views := make(map[SeriesID][]MetricSample, len(h.series))
	for id, s := range h.series {
		views[id] = s.view()
	}
	return HistoryView{series: views}
}

// HistoryView is a read-only copy of the history series references.
type HistoryView struct {
	series map[SeriesID][]MetricSample
}

// Samples returns every retained sample of a series, oldest first.
func (v HistoryView) Samples(id SeriesID) []MetricSample {
	return v.series[id]
}

// Slice returns the samples within d of the newest one.
func (v HistoryView) Slice(id SeriesID, d time.Duration) []MetricSample {
	return sliceWithin(v.series[id], d)
}

// Window returns the samples in [newest-offset-scope, newest-offset], which is
// what a timeline scrolled back by offset displays.
func (v HistoryView) Window(id SeriesID, scope, offset time.Duration) []MetricSample {
	samples := v.series[id]
	if len(samples) == 0 || scope <= 0 {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	newest := samples[len(samples)-1].Timestamp
	end := newest.Add(-offset)
	begin := end.Add(-scope)

	lo := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Timestamp.Before(begin)
	})
	hi := sort.Search(len(samples), func(i int) bool {
		return samples[i].Timestamp.After(end)
	})
	if lo >= hi {
		return nil
	}
	return samples[lo:hi:hi]
}

// Len returns the number of samples in a series.
func (v HistoryView) Len(id SeriesID) int {
	return len(v.series[id])
}

func sliceWithin(samples []MetricSample, d time.Duration) []MetricSample {
	if len(samples) == 0 || d <= 0 {
		return nil
	}
	cutoff := samples[len(samples)-1].Timestamp.Add(-d)
	i := sort.Search(len(samples), func(i int) bool {
		return !samples[i].Timestamp.Before(cutoff)
	})
	return samples[i:]
}
