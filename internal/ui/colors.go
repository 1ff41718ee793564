package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication. ANSI codes keep output readable on
// whatever palette the operator's terminal uses.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Accent colors for headers and the spinner.
const (
	ColorAccent    lipgloss.Color = "#FF2E97"
	ColorAccentAlt lipgloss.Color = "#00FFFF"
)

// SpinnerColors is the cycle the spinner steps through while animating.
var SpinnerColors = []lipgloss.Color{
	ColorAccent,
	"#BF40FF",
	ColorAccentAlt,
	"#39FF14",
}

// Usage thresholds shared by bars and sparklines.
const (
	WarningThreshold  = 60.0
	CriticalThreshold = 80.0
)

// ThresholdColor maps a 0-100 usage figure to green, yellow or red.
func ThresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorError
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }
func ErrorStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorError) }
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }
func InfoStyle() lipgloss.Style    { return lipgloss.NewStyle().Foreground(ColorInfo) }
func MutedStyle() lipgloss.Style   { return lipgloss.NewStyle().Foreground(ColorMuted) }

// HeaderStyle is used for section titles in the status report.
func HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
}

// DisableColors switches lipgloss to plain ASCII output (for --no-color).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// PrintWarning writes a warning line to stderr.
func PrintWarning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle().Render(SymbolWarning), msg)
}
