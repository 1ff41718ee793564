package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width values as block characters
// scaled between the window's min and max. The color follows the last
// value's threshold.
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

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		level := numLevels / 2
		if valueRange > 0 {
			level = int((v - minVal) / valueRange * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	style := lipgloss.NewStyle().Foreground(ThresholdColor(data[len(data)-1]))
	return style.Render(sb.String())
}
