package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Neon palette used for branding and animated accents.
const (
	ColorNeonPink    lipgloss.Color = "#FF2E97"
	ColorNeonCyan    lipgloss.Color = "#00F0FF"
	ColorNeonPurple  lipgloss.Color = "#B967FF"
	ColorNeonGreen   lipgloss.Color = "#05FFA1"
	ColorGlassBorder lipgloss.Color = "#3D3D5C"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "#39FF14" // Neon green
	ColorError   lipgloss.Color = "#FF0055" // Hot red-pink
	ColorWarning lipgloss.Color = "#FFAA00" // Electric amber
	ColorInfo    lipgloss.Color = "#00FFFF" // Neon cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#FFFFFF" // White
	ColorSecondary lipgloss.Color = "#B4B4D0" // Lavender
	ColorMuted     lipgloss.Color = "#6B6B8D" // Purple-gray
)

// GradientColors is the spinner color cycle: pink, purple, cyan, green.
var GradientColors = []lipgloss.Color{
	ColorNeonPink,
	ColorNeonPurple,
	ColorNeonCyan,
	ColorNeonGreen,
}

// SymbolWarning prefixes warnings printed outside the dashboard.
const SymbolWarning = "⚠"

// SuccessStyle returns the style for successful results.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle returns the style for errors.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WarningStyle returns the style for warnings.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// InfoStyle returns the style for informational text.
func InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorInfo)
}

// MutedStyle returns the style for secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// PrintWarning writes a styled warning line to w.
func PrintWarning(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle().Render(SymbolWarning), msg)
}

// DisableColors switches lipgloss to monochrome output (for --no-color).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
