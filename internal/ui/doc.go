// Package ui provides the terminal rendering used by the CLI: semantic
// colors, status symbols, usage bars, sparklines, a spinner for blocking
// calls and the status report layout.
//
// Colors are ANSI codes so they follow the terminal's own palette. Bars and
// sparklines switch color at 60% (yellow) and 80% (red):
//
//	ui.RenderProgressBar(67.5, 20)  // [█████████████░░░░░░░]  68%
//
// Call DisableColors for --no-color or when output is not a terminal.
package ui
