package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStatusColorsAreDistinct(t *testing.T) {
	// Summary rows and spinner lines are told apart by color as well as glyph
	colors := []lipgloss.Color{ColorSuccess, ColorError, ColorWarning, ColorInfo, ColorMuted}

	seen := make(map[lipgloss.Color]bool)
	for _, c := range colors {
		assert.True(t, strings.HasPrefix(string(c), "#"), "%s should be a hex color", c)
		assert.False(t, seen[c], "duplicate status color %s", c)
		seen[c] = true
	}
}

func TestStatusSymbolsAreDistinct(t *testing.T) {
	symbols := []string{SymbolSuccess, SymbolFail, SymbolPending, SymbolComplete, SymbolSkipped, SymbolWarning}

	seen := make(map[string]bool)
	for _, s := range symbols {
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate symbol %s", s)
		seen[s] = true
	}
}

func TestGradientColors(t *testing.T) {
	assert.Equal(t, []lipgloss.Color{ColorNeonPink, ColorNeonPurple, ColorNeonCyan, ColorNeonGreen}, GradientColors)
}

func TestStylesRenderText(t *testing.T) {
	styles := map[string]lipgloss.Style{
		"success": SuccessStyle(),
		"error":   ErrorStyle(),
		"warning": WarningStyle(),
		"info":    InfoStyle(),
		"muted":   MutedStyle(),
	}

	for name, style := range styles {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, style.Render("oversee doctor"), "oversee doctor")
		})
	}
}

func TestPrintWarning(t *testing.T) {
	var buf bytes.Buffer
	PrintWarning(&buf, "No GPU source answered")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, WarningStyle().Render(SymbolWarning)))
	assert.Contains(t, out, "No GPU source answered")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestDisableColors(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	lipgloss.SetColorProfile(termenv.TrueColor)
	DisableColors()

	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	assert.Equal(t, "plain", SuccessStyle().Render("plain"), "no escape codes once colors are off")
}
