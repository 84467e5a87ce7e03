package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/oversee/internal/monitor"
)

// scrollStep is how far - and + move the timeline.
const scrollStep = 30 * time.Second

// keyMap holds every dashboard binding. The help overlay is generated from it.
type keyMap struct {
	Quit       key.Binding
	Pause      key.Binding
	Sort       key.Binding
	Filter     key.Binding
	Clear      key.Binding
	Scope      key.Binding
	ScrollBack key.Binding
	ScrollFwd  key.Binding
	ToggleGPU  key.Binding
	Up         key.Binding
	Down       key.Binding
	Pin        key.Binding
	Kill       key.Binding
	Help       key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q / Ctrl+C", "Quit")),
	Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("Space", "Pause / resume sampling")),
	Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "Cycle sort (cpu, memory, name, pid)")),
	Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "Filter by name, user, pid or port")),
	Clear:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Clear filter / close")),
	Scope:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Cycle timeline scope")),
	ScrollBack: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "Scroll timeline back 30s")),
	ScrollFwd:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "Scroll timeline forward 30s")),
	ToggleGPU:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "Show / hide GPU panel")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up / k", "Select previous process")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down / j", "Select next process")),
	Pin:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Pin / unpin process")),
	Kill:       key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "Terminate process (asks first)")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "Toggle this help")),
}

// bindings lists the bindings in help order.
func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Quit, k.Pause, k.Sort, k.Filter, k.Clear, k.Scope, k.ScrollBack,
		k.ScrollFwd, k.ToggleGPU, k.Up, k.Down, k.Pin, k.Kill, k.Help,
	}
}

// HandleKeyMsg processes keyboard input and returns the command to run.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Modal states swallow every key.
	if m.confirmKill != nil {
		return true, m.handleConfirmKey(msg)
	}
	if m.filtering {
		return true, m.handleFilterKey(msg)
	}

	if key.Matches(msg, keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key.Matches(msg, keys.Clear) {
		m.showHelp = false
		return true, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, keys.Pause):
		if m.ctrl.TogglePause() {
			m.status = "paused"
		} else {
			m.status = "resumed"
		}
		m.refresh()
		return true, nil

	case key.Matches(msg, keys.Sort):
		mode := m.ctrl.CycleSortMode()
		m.status = "sort: " + mode.String()
		m.refresh()
		return true, nil

	case key.Matches(msg, keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.snap.Filter.Query)
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
		m.ctrl.SetFilter(monitor.FilterState{Query: m.filterInput.Value(), Mode: monitor.FilterActive})
		m.refresh()
		return true, nil

	case key.Matches(msg, keys.Clear):
		if m.snap.Filter.Mode != monitor.FilterNone {
			m.ctrl.SetFilter(monitor.FilterState{})
			m.refresh()
		}
		return true, nil

	case key.Matches(msg, keys.Scope):
		scope := m.ctrl.CycleTimelineScope()
		m.status = "scope: " + formatDuration(scope)
		m.refresh()
		return true, nil

	case key.Matches(msg, keys.ScrollBack):
		m.scrollBy(scrollStep)
		return true, nil

	case key.Matches(msg, keys.ScrollFwd):
		m.scrollBy(-scrollStep)
		return true, nil

	case key.Matches(msg, keys.ToggleGPU):
		m.showGPU = !m.showGPU
		return true, nil

	case key.Matches(msg, keys.Up):
		m.selectIndex(m.selected - 1)
		return true, nil

	case key.Matches(msg, keys.Down):
		m.selectIndex(m.selected + 1)
		return true, nil

	case key.Matches(msg, keys.Pin):
		if p, ok := m.selectedProcess(); ok {
			m.togglePin(p.PID)
		}
		return true, nil

	case key.Matches(msg, keys.Kill):
		if p, ok := m.selectedProcess(); ok {
			m.confirmKill = &p
		}
		return true, nil
	}

	return false, nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.ctrl.SetFilter(monitor.FilterState{})
		m.refresh()
		return nil
	case tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		mode := monitor.FilterApplied
		if m.filterInput.Value() == "" {
			mode = monitor.FilterNone
		}
		m.ctrl.SetFilter(monitor.FilterState{Query: m.filterInput.Value(), Mode: mode})
		m.refresh()
		return nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.ctrl.SetFilter(monitor.FilterState{Query: m.filterInput.Value(), Mode: monitor.FilterActive})
	m.refresh()
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	target := *m.confirmKill
	m.confirmKill = nil
	if msg.String() != "y" {
		m.status = "kill cancelled"
		return nil
	}
	terminate := m.terminate
	return func() tea.Msg {
		return killResultMsg{pid: target.PID, name: target.Name, err: terminate(target.PID)}
	}
}

// scrollBy moves the timeline offset, staying within [0, scrollback].
func (m *Model) scrollBy(d time.Duration) {
	m.offset += d
	if m.offset < 0 {
		m.offset = 0
	}
	if limit := m.snap.Scrollback; m.offset > limit {
		m.offset = limit
	}
	if m.offset == 0 {
		m.status = "timeline: live"
	} else {
		m.status = fmt.Sprintf("timeline: -%s", formatDuration(m.offset))
	}
}

// selectIndex moves the selection to row i, clamped to the table.
func (m *Model) selectIndex(i int) {
	if len(m.rows) == 0 {
		return
	}
	m.selected = clampInt(i, len(m.rows)-1)
	m.selectedPID = m.rows[m.selected].PID
}
