package monitor

import "github.com/charmbracelet/bubbles/key"

// Tab is one page of the dashboard.
type Tab int

const (
	TabOverview Tab = iota
	TabServices
	TabContainers
	TabIssues
	tabCount
)

// String returns the tab title.
func (t Tab) String() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabServices:
		return "Services"
	case TabContainers:
		return "Containers"
	case TabIssues:
		return "Issues"
	default:
		return "?"
	}
}

// Next cycles to the following tab.
func (t Tab) Next() Tab {
	return (t + 1) % tabCount
}

// Prev cycles to the previous tab.
func (t Tab) Prev() Tab {
	return (t + tabCount - 1) % tabCount
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Next    key.Binding
	Prev    key.Binding
	Help    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Next:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Refresh, k.Help, k.Quit},
	}
}
