package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Progress bar block characters.
const (
	progressFilled = '█'
	progressEmpty  = '░'
)

// RenderProgressBar draws a usage bar such as "[████████░░░░]  67%".
// Percent is clamped to 0-100; width is the bar width without brackets.
func RenderProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = clampPercent(percent)

	style := lipgloss.NewStyle().Foreground(ThresholdColor(percent))
	return "[" + style.Render(bar(percent, width)) + "]" + fmt.Sprintf(" %3.0f%%", percent)
}

// RenderProgressBarSimple is RenderProgressBar without brackets.
func RenderProgressBarSimple(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = clampPercent(percent)

	style := lipgloss.NewStyle().Foreground(ThresholdColor(percent))
	return style.Render(bar(percent, width)) + fmt.Sprintf(" %3.0f%%", percent)
}

func bar(percent float64, width int) string {
	filled := int((percent / 100.0) * float64(width))

	var sb strings.Builder
	sb.Grow(width * 3)
	for i := 0; i < width; i++ {
		if i < filled {
			sb.WriteRune(progressFilled)
		} else {
			sb.WriteRune(progressEmpty)
		}
	}
	return sb.String()
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
