package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/oversee/internal/monitor"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	// Semantic colors for metrics
	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")

	ColorGraph = lipgloss.Color("#00FFFF")
)

// Thresholds for metric severity levels
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// Process table
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary).
				Bold(true)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorTextPrimary).
				Background(ColorBorder)

	PinnedMarkStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	// Status line
	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorDarkBg).
			Background(ColorWarning).
			Bold(true).
			Padding(0, 1)

	StatusMessageStyle = lipgloss.NewStyle().
				Foreground(ColorAccentDim)

	ConfirmStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)
)

// MetricColor returns the appropriate color for a percentage-based metric.
// Uses threshold-based coloring: green < 70%, yellow 70-90%, red > 90%.
func MetricColor(percent float64) lipgloss.Color {
	return MetricColorWithThresholds(percent, int(WarningThreshold), int(CriticalThreshold))
}

// MetricColorWithThresholds returns the color for a percentage using the
// provided warning and critical thresholds.
func MetricColorWithThresholds(percent float64, warning, critical int) lipgloss.Color {
	switch {
	case percent >= float64(critical):
		return ColorCritical
	case percent >= float64(warning):
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style with the appropriate foreground color for the metric.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// PressureColor maps a memory pressure level to the metric palette.
func PressureColor(level monitor.PressureLevel) lipgloss.Color {
	switch level {
	case monitor.PressureCritical:
		return ColorCritical
	case monitor.PressureWarning:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// StatusStyle renders collector status suffixes. OK renders nothing.
func StatusStyle(status monitor.SourceStatus) lipgloss.Style {
	switch status {
	case monitor.StatusStale:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	case monitor.StatusDegraded:
		return lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorTextSecondary)
	}
}

// ThinProgressBar renders a minimal line-based progress bar using thin characters.
// Uses ━ for filled segments and ─ for empty segments.
func ThinProgressBar(width int, percent float64) string {
	return ThinProgressBarWithThresholds(width, percent, int(WarningThreshold), int(CriticalThreshold))
}

// ThinProgressBarWithThresholds renders a thin progress bar with custom thresholds.
func ThinProgressBarWithThresholds(width int, percent float64, warning, critical int) string {
	if width < 1 {
		width = 1
	}
	percent = clampPercent(percent)

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
	return lipgloss.NewStyle().Foreground(MetricColorWithThresholds(percent, warning, critical)).Render(bar)
}

// SectionHeader renders a section header with the title on the left and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// lipgloss.Width is ANSI-aware
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}
	middle := strings.Repeat("─", fillWidth)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+middle+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a section.
// Format: ╰────────────────────────────────────────────────────╯
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	middle := strings.Repeat("─", width-2)
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + middle + "╯")
}

// SectionContentLine renders a content line with left and right borders, padded to width.
// Content wider than the section is truncated.
// Format: │ content                                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}
	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)

	innerWidth := width - 4
	if lipgloss.Width(content) > innerWidth {
		content = lipgloss.NewStyle().MaxWidth(innerWidth).Render(content)
	}
	padding := innerWidth - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
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
