package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Healthy / completed
	SymbolFail     = "✗" // Unhealthy / failed
	SymbolPending  = "○" // Not checked yet
	SymbolProgress = "◐" // In progress
	SymbolComplete = "●" // Running
	SymbolSkipped  = "⊘" // Stopped or skipped
	SymbolWarning  = "⚠"
)

// StatusSymbol renders a colored check or cross.
func StatusSymbol(ok bool) string {
	if ok {
		return SuccessStyle().Render(SymbolSuccess)
	}
	return ErrorStyle().Render(SymbolFail)
}
