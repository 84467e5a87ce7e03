package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo contains information to display in the header.
type HeaderInfo struct {
	Version string // Version string (e.g., "v0.4.0")
	Tagline string // Optional tagline (e.g., "Local system monitor")
	Host    string // Optional host line, e.g. "build-box · darwin 14.5"
}

// HeaderWidth is the default width of the header divider
const HeaderWidth = 50

// RenderHeader renders the branded header printed above non-dashboard
// output such as the init wizard and snapshot summaries.
func RenderHeader(info HeaderInfo) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ColorNeonPink).
		Bold(true)

	versionStyle := lipgloss.NewStyle().
		Foreground(ColorNeonCyan)

	taglineStyle := lipgloss.NewStyle().
		Foreground(ColorSecondary)

	dividerStyle := lipgloss.NewStyle().
		Foreground(ColorGlassBorder)

	var output strings.Builder

	output.WriteString(titleStyle.Render("oversee"))
	if info.Version != "" {
		output.WriteString(" ")
		output.WriteString(versionStyle.Render(info.Version))
	}
	output.WriteString("\n")

	if info.Tagline != "" {
		output.WriteString(taglineStyle.Render(info.Tagline))
		output.WriteString("\n")
	}

	if info.Host != "" {
		hostStyle := lipgloss.NewStyle().Foreground(ColorMuted)
		output.WriteString(hostStyle.Render(info.Host))
		output.WriteString("\n")
	}

	output.WriteString(dividerStyle.Render(strings.Repeat("━", HeaderWidth)))
	output.WriteString("\n")

	return output.String()
}

// PrintHeader writes the styled header to w.
func PrintHeader(w io.Writer, info HeaderInfo) {
	io.WriteString(w, RenderHeader(info))
}
