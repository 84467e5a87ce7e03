package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{512 << 20, "512.0 MB"},
		{16 << 30, "16.0 GB"},
		{3 << 40, "3.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatBytes(tt.input))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "90s"},
		{2 * time.Minute, "2m"},
		{15 * time.Minute, "15m"},
		{150 * time.Second, "2m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.input))
		})
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{45 * time.Second, "0m"},
		{42 * time.Minute, "42m"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{76 * time.Hour, "3d 4h"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.input))
		})
	}
}

func TestFormatPorts(t *testing.T) {
	assert.Equal(t, "[:5432]", formatPorts([]uint16{5432}))
	assert.Equal(t, "[:80 :443 :8080]", formatPorts([]uint16{80, 443, 8080}))
	assert.Equal(t, "[:80 :443 :8080 +2]", formatPorts([]uint16{80, 443, 8080, 9000, 9090}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"fits", "postgres", 10, "postgres"},
		{"exact", "postgres", 8, "postgres"},
		{"cut", "WindowServer", 6, "Windo…"},
		{"one cell", "abc", 1, "…"},
		{"zero", "abc", 0, ""},
		{"multibyte", "日本語テキスト", 3, "日本…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.input, tt.n))
		})
	}
}

func TestCoreGrid(t *testing.T) {
	assert.Nil(t, coreGrid(nil, 80))

	lines := coreGrid([]float64{10, 20, 30, 40, 50}, 40)
	require.Len(t, lines, 3, "two cells per line at width 40")
	assert.Contains(t, lines[0], "0 ")
	assert.Contains(t, lines[2], "50%")

	assert.Len(t, coreGrid([]float64{10, 20}, 5), 2, "at least one cell per line")
}

func TestGPUUnavailableReason(t *testing.T) {
	assert.Equal(t, "no GPU source reported data yet", gpuUnavailableReason(nil))
	assert.Equal(t, "gpu unavailable", gpuUnavailableReason(errors.New("gpu unavailable")))
}

func TestRenderDashboard(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.tick(t, 40)
	}
	m, _ := send(t, h.model(), tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	for _, want := range []string{
		"oversee", "build-box", "up 1d 2h", "2 cores", "sort cpu", "scope 60s",
		"CPU", "40.0%", "Memory", "8.0 GB / 16.0 GB", "pressure normal",
		"Processes", "3 shown / 3", "postgres", "[:5432]", "q quit",
	} {
		assert.Contains(t, view, want)
	}
	assert.NotContains(t, view, "╭─ GPU", "GPU panel is hidden by default")
	assert.NotContains(t, view, "PAUSED")

	for i, line := range strings.Split(view, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 100, "line %d overflows", i)
	}
}

func TestRenderDashboard_DefaultSize(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	width, height := m.size()
	assert.Equal(t, defaultWidth, width)
	assert.Equal(t, defaultHeight, height)
	assert.NotEmpty(t, m.View())
}

func TestRenderProcesses_FilterAndStale(t *testing.T) {
	h := newHarness(t)
	h.coord.SetFilter(monitor.FilterState{Query: "post", Mode: monitor.FilterApplied})
	h.procs.SetErr(errors.New("sysctl kern.proc failed"))
	h.tick(t, 10)
	m := h.model()

	out := m.renderProcesses(100, 5)
	assert.Contains(t, out, `filter "post"`)
	assert.Contains(t, out, "1 shown / 3")
	assert.Contains(t, out, "stale")
}

func TestRenderProcesses_ScrollsToSelection(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m.selectIndex(2)

	out := m.renderProcesses(100, 1)
	assert.Contains(t, out, "WindowServer")
	assert.NotContains(t, out, "launchd")
}

func TestRenderProcesses_PinnedMark(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m.togglePin(200)

	row := m.renderRow(m.rows[0], false, 96)
	assert.True(t, strings.HasPrefix(row, "* "))
	assert.Contains(t, row, "postgres")
}

func TestRenderMemory_Swap(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	assert.Contains(t, m.renderMemory(100), "swap none")
}

func TestRenderFooter_Status(t *testing.T) {
	h := newHarness(t)
	m := h.model()
	m.status = "sort: memory"
	assert.Contains(t, m.renderFooter(200), "sort: memory")
}
