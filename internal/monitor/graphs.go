package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
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
// Unicode braille starts at U+2800 (empty); dot n sets bit n-1.

const brailleBase = '\u2800'

// sparklineBlocks are block characters for 8-level vertical resolution.
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// brailleDots maps [row][col] to the bit offset in the braille pattern.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// findMinMax returns the value range. Data that fits in 0-100 is treated
// as a percentage and always scaled against the full range.
func findMinMax(data []float64) (minVal, maxVal float64, isPercentage bool) {
	if len(data) == 0 {
		return 0, 100, true
	}

	minVal, maxVal = data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}

	isPercentage = maxVal <= 100 && minVal >= 0
	if isPercentage {
		return 0, 100, true
	}
	return minVal, maxVal, false
}

func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		return (val - minVal) / (maxVal - minVal)
	}
	return 0.5
}

func clampInt(val, maxVal int) int {
	return max(0, min(val, maxVal))
}

// RenderBrailleSparkline renders percentages as a braille graph of width
// cells by height rows. Each cell holds two samples and four levels. Short
// histories are right-aligned; long ones are downsampled keeping peaks.
// Each column is colored by its highest sample.
func RenderBrailleSparkline(data []float64, width, height int, th Thresholds) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal, isPercentage := findMinMax(data)
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
	horizOffset := max(0, targetPoints-len(resampled))

	for i, val := range resampled {
		dotHeight := clampInt(int(normalizeValue(val, minVal, maxVal)*float64(totalDots)), totalDots)

		charCol := (i + horizOffset) / 2
		if charCol >= width {
			continue
		}
		colMaxValues[charCol] = max(colMaxValues[charCol], val)
		subCol := (i + horizOffset) % 2

		// Fill from the bottom up
		for dot := 0; dot < dotHeight; dot++ {
			row := height - 1 - (dot / 4)
			subRow := 3 - (dot % 4)
			grid[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var lb strings.Builder
		for colIdx, char := range row {
			color := ColorGraph
			if isPercentage {
				color = th.Color(colMaxValues[colIdx])
			}
			lb.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(char)))
		}
		lines = append(lines, lb.String())
	}
	return strings.Join(lines, "\n")
}

// RenderMiniSparkline renders a single-row block sparkline scaled to the
// data's own range, for unbounded values like throughput.
func RenderMiniSparkline(data []float64, width int, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	minVal, maxVal := 0.0, 0.0
	for _, v := range data {
		maxVal = max(maxVal, v)
	}

	if len(data) > width {
		data = resampleData(data, width)
	}

	var result strings.Builder
	// Right-align short histories
	result.WriteString(strings.Repeat(" ", width-len(data)))
	for _, val := range data {
		idx := 0
		if maxVal > minVal {
			idx = clampInt(int(normalizeValue(val, minVal, maxVal)*float64(len(sparklineBlocks)-1)), len(sparklineBlocks)-1)
		}
		result.WriteRune(sparklineBlocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Render(result.String())
}

// resampleData resamples data to targetSize. Downsampling keeps the max of
// each bucket so spikes survive; upsampling interpolates linearly.
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

	if len(data) > targetSize {
		bucketSize := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucketSize)
			end := min(len(data), int(float64(i+1)*bucketSize))
			if start >= end {
				start = max(0, end-1)
			}

			maxVal := data[start]
			for j := start + 1; j < end; j++ {
				maxVal = max(maxVal, data[j])
			}
			result[i] = maxVal
		}
		return result
	}

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
