package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/oversee/internal/monitor"
)

// DefaultFrameRate is the render cadence. It is independent of sampling.
const DefaultFrameRate = 100 * time.Millisecond

// Controller is the part of the coordinator the dashboard drives.
type Controller interface {
	Latest() *monitor.Snapshot
	TogglePause() bool
	CycleSortMode() monitor.SortMode
	SetFilter(monitor.FilterState)
	CycleTimelineScope() time.Duration
}

// Options configures the dashboard model.
type Options struct {
	// FrameRate is how often the latest snapshot is rendered.
	FrameRate time.Duration
	// ShowGPU shows the GPU panel at start.
	ShowGPU bool
	// Terminate ends a process. Defaults to monitor.Terminate.
	Terminate func(pid int32) error
}

// Model is the Bubble Tea model for the monitoring dashboard.
type Model struct {
	ctrl      Controller
	rate      time.Duration
	terminate func(pid int32) error

	snap *monitor.Snapshot
	// rows is the visible process list with pinned processes first.
	rows        []monitor.ProcessRecord
	selected    int
	selectedPID int32
	pinned      map[int32]bool

	// offset is how far the timelines are scrolled back from live.
	offset  time.Duration
	showGPU bool

	showHelp    bool
	filtering   bool
	filterInput textinput.Model
	confirmKill *monitor.ProcessRecord
	status      string

	width    int
	height   int
	quitting bool
	err      error
}

// frameMsg triggers a render of the latest snapshot.
type frameMsg time.Time

// killResultMsg reports the outcome of a terminate request.
type killResultMsg struct {
	pid  int32
	name string
	err  error
}

// FatalMsg stops the dashboard because sampling cannot continue.
type FatalMsg struct {
	Err error
}

// NewModel creates a dashboard model reading from ctrl.
func NewModel(ctrl Controller, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.Terminate == nil {
		opts.Terminate = monitor.Terminate
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "name, user, pid or port"
	ti.CharLimit = 64

	m := Model{
		ctrl:        ctrl,
		rate:        opts.FrameRate,
		terminate:   opts.Terminate,
		pinned:      make(map[int32]bool),
		showGPU:     opts.ShowGPU,
		filterInput: ti,
		selectedPID: -1,
	}
	m.refresh()
	return m
}

// Init starts the render loop.
func (m Model) Init() tea.Cmd {
	return m.frameCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filterInput.Width = msg.Width - 4

	case frameMsg:
		m.refresh()
		return m, m.frameCmd()

	case killResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("kill %d failed: %v", msg.pid, msg.err)
		} else {
			m.status = fmt.Sprintf("sent SIGTERM to %s (%d)", msg.name, msg.pid)
			delete(m.pinned, msg.pid)
		}

	case FatalMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// Err returns the fatal error that stopped the dashboard, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.rate, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// refresh loads the latest snapshot and rebuilds the row order, keeping the
// selection on the same process when it is still visible.
func (m *Model) refresh() {
	snap := m.ctrl.Latest()
	if snap == nil {
		snap = &monitor.Snapshot{}
	}
	m.snap = snap

	for pid := range m.pinned {
		if _, ok := snap.Processes.Get(pid); !ok {
			delete(m.pinned, pid)
		}
	}
	m.rows = pinnedFirst(snap.VisibleProcesses(), m.pinned)

	m.selected = clampInt(m.selected, len(m.rows)-1)
	if m.selectedPID >= 0 {
		for i, r := range m.rows {
			if r.PID == m.selectedPID {
				m.selected = i
				break
			}
		}
	}
	if len(m.rows) > 0 {
		m.selectedPID = m.rows[m.selected].PID
	} else {
		m.selected = 0
		m.selectedPID = -1
	}
}

// pinnedFirst moves pinned records to the front, keeping relative order.
func pinnedFirst(rows []monitor.ProcessRecord, pinned map[int32]bool) []monitor.ProcessRecord {
	if len(pinned) == 0 {
		return rows
	}
	out := make([]monitor.ProcessRecord, 0, len(rows))
	for _, r := range rows {
		if pinned[r.PID] {
			out = append(out, r)
		}
	}
	for _, r := range rows {
		if !pinned[r.PID] {
			out = append(out, r)
		}
	}
	return out
}

func (m *Model) selectedProcess() (monitor.ProcessRecord, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return monitor.ProcessRecord{}, false
	}
	return m.rows[m.selected], true
}

func (m *Model) togglePin(pid int32) {
	if m.pinned[pid] {
		delete(m.pinned, pid)
	} else {
		m.pinned[pid] = true
	}
	m.selectedPID = pid
	m.refresh()
}

// Selected returns the pid of the selected process, or -1.
func (m Model) Selected() int32 {
	return m.selectedPID
}

// Pinned reports whether pid is pinned.
func (m Model) Pinned(pid int32) bool {
	return m.pinned[pid]
}
