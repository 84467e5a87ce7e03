package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline creates a sparkline from the most recent width values,
// scaled to their own min/max range. It suits series without a natural
// ceiling. The color follows the last value's threshold.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	return colorize(sparkline(data, minVal, maxVal), data[len(data)-1])
}

// RenderPercentSparkline is RenderSparkline on a fixed 0-100 scale, so a
// flat 5% line stays low instead of filling the middle.
func RenderPercentSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	return colorize(sparkline(data, 0, 100), data[len(data)-1])
}

// sparkline maps each value onto the block levels between lo and hi.
// Values outside the range clamp to the lowest or highest block.
func sparkline(data []float64, lo, hi float64) string {
	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := hi - lo

	for _, v := range data {
		var level int
		if valueRange == 0 {
			level = numLevels / 2
		} else {
			normalized := (v - lo) / valueRange
			level = int(normalized * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}
	return sb.String()
}

func colorize(line string, last float64) string {
	return lipgloss.NewStyle().Foreground(getThresholdColor(last)).Render(line)
}

// getThresholdColor returns a color based on percentage thresholds.
//   - 0-60%: green (success)
//   - 60-80%: yellow/amber (warning)
//   - 80-100%: red (error)
func getThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
