package dashboard

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/stretchr/testify/assert"
)

func TestMetricColor(t *testing.T) {
	tests := []struct {
		name     string
		percent  float64
		expected lipgloss.Color
	}{
		{"zero is healthy", 0, ColorHealthy},
		{"just below warning", 69.9, ColorHealthy},
		{"at warning", 70, ColorWarning},
		{"between thresholds", 85, ColorWarning},
		{"at critical", 90, ColorCritical},
		{"full", 100, ColorCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MetricColor(tt.percent))
		})
	}
}

func TestMetricColorWithThresholds(t *testing.T) {
	assert.Equal(t, ColorHealthy, MetricColorWithThresholds(49, 50, 80))
	assert.Equal(t, ColorWarning, MetricColorWithThresholds(50, 50, 80))
	assert.Equal(t, ColorCritical, MetricColorWithThresholds(80, 50, 80))
}

func TestPressureColor(t *testing.T) {
	assert.Equal(t, ColorHealthy, PressureColor(monitor.PressureNormal))
	assert.Equal(t, ColorWarning, PressureColor(monitor.PressureWarning))
	assert.Equal(t, ColorCritical, PressureColor(monitor.PressureCritical))
}

func TestThinProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		percent  float64
		expected string
	}{
		{"empty", 4, 0, "────"},
		{"quarter", 4, 25, "━───"},
		{"full", 4, 100, "━━━━"},
		{"negative clamps", 4, -10, "────"},
		{"minimum width", 0, 100, "━"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ThinProgressBar(tt.width, tt.percent))
		})
	}
}

func TestSectionHeader(t *testing.T) {
	tests := []struct {
		name  string
		title string
		value string
		width int
	}{
		{"standard width", "CPU", "42.0%", 60},
		{"narrow width", "Memory", "8.0 GB", 20},
		{"minimum width", "GPU", "n/a", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SectionHeader(tt.title, tt.value, tt.width)
			assert.True(t, strings.HasPrefix(out, "╭─ "+tt.title))
			assert.True(t, strings.HasSuffix(out, tt.value+" ╮"))
			if tt.width >= lipgloss.Width(tt.title)+lipgloss.Width(tt.value)+8 {
				assert.Equal(t, tt.width, lipgloss.Width(out))
			}
		})
	}
}

func TestSectionFooter(t *testing.T) {
	for _, width := range []int{2, 10, 80} {
		out := SectionFooter(width)
		assert.Equal(t, width, lipgloss.Width(out))
		assert.True(t, strings.HasPrefix(out, "╰"))
		assert.True(t, strings.HasSuffix(out, "╯"))
	}
	assert.Equal(t, "╰╯", SectionFooter(0))
}

func TestSectionContentLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		width   int
	}{
		{"padded", "hello", 20},
		{"exact fit", "abcdef", 10},
		{"truncated", "a very long line that does not fit", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SectionContentLine(tt.content, tt.width)
			assert.Equal(t, tt.width, lipgloss.Width(out))
			assert.True(t, strings.HasPrefix(out, "│ "))
			assert.True(t, strings.HasSuffix(out, " │"))
		})
	}
}
