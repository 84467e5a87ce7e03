package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/oversee/internal/monitor"
)

// Braille character rendering for high-resolution terminal graphs.
//
// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// Unicode braille starts at U+2800 (empty) and uses bit patterns:
// bit 0 = dot 1, bit 1 = dot 2, bit 2 = dot 3, bit 3 = dot 4,
// bit 4 = dot 5, bit 5 = dot 6, bit 6 = dot 7, bit 7 = dot 8

const brailleBase = '⠀'

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// brailleDots maps [row][col] to the bit offset of that dot.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// clampInt clamps an integer to a range [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// RenderBrailleTimeline renders percentage data as a braille area graph.
// Each character holds 2 data points horizontally and 4 levels vertically.
// Data shorter than the graph is right-aligned so the newest sample is always
// at the right edge. Columns are colored by their peak value.
func RenderBrailleTimeline(data []float64, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	totalDots := height * 4
	targetPoints := width * 2

	resampled := data
	if len(data) > targetPoints {
		resampled = resampleData(data, targetPoints)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}
	colMaxValues := make([]float64, width)

	horizOffset := targetPoints - len(resampled)
	if horizOffset < 0 {
		horizOffset = 0
	}

	for i, val := range resampled {
		val = clampPercent(val)
		dotHeight := clampInt(int(val/100*float64(totalDots)+0.5), totalDots)

		charCol := (i + horizOffset) / 2
		if charCol >= width {
			continue
		}
		if val > colMaxValues[charCol] {
			colMaxValues[charCol] = val
		}
		subCol := (i + horizOffset) % 2

		// Fill dots from bottom up
		for dot := 0; dot < dotHeight; dot++ {
			row := height - 1 - (dot / 4)
			subRow := 3 - (dot % 4)
			grid[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var lineBuilder strings.Builder
		for colIdx, char := range row {
			style := lipgloss.NewStyle().Foreground(MetricColor(colMaxValues[colIdx]))
			lineBuilder.WriteString(style.Render(string(char)))
		}
		lines = append(lines, lineBuilder.String())
	}
	return strings.Join(lines, "\n")
}

// RenderMiniSparkline renders a single-row sparkline using block characters
// on a fixed 0-100 scale.
func RenderMiniSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	resampled := data
	if len(data) > width {
		resampled = resampleData(data, width)
	}

	var result strings.Builder
	for _, val := range resampled {
		idx := clampInt(int(clampPercent(val)/100*float64(len(sparklineBlocks)-1)), len(sparklineBlocks)-1)
		result.WriteRune(sparklineBlocks[idx])
	}

	return lipgloss.NewStyle().Foreground(MetricColor(data[len(data)-1])).Render(result.String())
}

// timelinePoints turns a history window into one value per graph column
// pair. Samples are bucketed by time so gaps in the history stay visible as
// empty space instead of being stretched.
func timelinePoints(samples []monitor.MetricSample, scope time.Duration, end time.Time, points int) []float64 {
	if len(samples) == 0 || points <= 0 || scope <= 0 {
		return nil
	}
	begin := end.Add(-scope)
	step := float64(scope) / float64(points)

	out := make([]float64, points)
	seen := make([]bool, points)
	for _, s := range samples {
		if s.Timestamp.Before(begin) || s.Timestamp.After(end) {
			continue
		}
		// The newest sample always lands in the last bucket.
		idx := points - 1 - int(float64(end.Sub(s.Timestamp))/step)
		if idx < 0 {
			idx = 0
		}
		if !seen[idx] || s.Value > out[idx] {
			out[idx] = s.Value
			seen[idx] = true
		}
	}

	// Trim leading empty buckets so the graph starts where data starts.
	first := 0
	for first < points && !seen[first] {
		first++
	}
	if first == points {
		return nil
	}
	return out[first:]
}

// RenderGradientBar renders a horizontal bar whose cells are colored by
// their position, from green to red.
func RenderGradientBar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}
	percent = clampPercent(percent)

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	var result strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			posPercent := float64(i+1) / float64(width) * 100
			result.WriteString(lipgloss.NewStyle().Foreground(MetricColor(posPercent)).Render("█"))
		} else {
			result.WriteString(lipgloss.NewStyle().Foreground(ColorTextMuted).Render("░"))
		}
	}
	return result.String()
}

// resampleData resamples data to the target size.
// When downsampling (compressing), uses max-based sampling to preserve peaks/spikes.
// When upsampling (expanding), uses linear interpolation.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}

	if len(data) == targetSize {
		return data
	}

	result := make([]float64, targetSize)

	if len(data) == 1 {
		for i := range result {
			result[i] = data[0]
		}
		return result
	}

	// Downsampling: use max within each bucket to preserve peaks
	if len(data) > targetSize {
		bucketSize := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucketSize)
			end := int(float64(i+1) * bucketSize)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			if start < 0 {
				start = 0
			}

			maxVal := data[start]
			for j := start + 1; j < end; j++ {
				if data[j] > maxVal {
					maxVal = data[j]
				}
			}
			result[i] = maxVal
		}
		return result
	}

	// Upsampling: linear interpolation
	scale := float64(len(data)-1) / float64(targetSize-1)
	for i := 0; i < targetSize; i++ {
		pos := float64(i) * scale
		idx := int(pos)
		frac := pos - float64(idx)

		if idx >= len(data)-1 {
			result[i] = data[len(data)-1]
		} else {
			result[i] = data[idx]*(1-frac) + data[idx+1]*frac
		}
	}

	return result
}
