package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sshsshje/sshsshje/internal/telemetry"
	"github.com/sshsshje/sshsshje/internal/ui"
)

// Defaults for NewModel.
const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 30 * time.Second
)

// Model is the Bubble Tea model for the live dashboard.
type Model struct {
	src      telemetry.Source
	target   string
	interval time.Duration
	timeout  time.Duration

	snap       *Snapshot
	history    *History
	collecting bool
	tab        Tab

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width    int
	height   int
	quitting bool
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// snapshotMsg carries a finished collection.
type snapshotMsg Snapshot

// NewModel creates a dashboard that polls src every interval. target is shown
// in the header. Zero durations use the defaults.
func NewModel(src telemetry.Source, target string, interval, timeout time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Spinner{
		Frames: []string{"◐", "◓", "◑", "◒"},
		FPS:    time.Second / 10,
	}))
	sp.Style = lipgloss.NewStyle().Foreground(ui.ColorSecondary)

	// collecting starts true because Init always kicks off a collection.
	return Model{
		src:        src,
		target:     target,
		interval:   interval,
		timeout:    timeout,
		history:    NewHistory(DefaultHistorySize),
		collecting: true,
		spinner:    sp,
		help:       help.New(),
		keys:       defaultKeyMap(),
	}
}

// Init starts the spinner and the first collection.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.collectCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.collecting {
			return m, m.tickCmd()
		}
		m.collecting = true
		return m, m.collectCmd()

	case snapshotMsg:
		snap := Snapshot(msg)
		m.collecting = false
		m.snap = &snap
		if snap.Err == nil {
			m.history.Push(snap.System, snap.Time)
		}
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		if m.collecting {
			return m, nil
		}
		m.collecting = true
		return m, m.collectCmd()
	case key.Matches(msg, m.keys.Next):
		m.tab = m.tab.Next()
	case key.Matches(msg, m.keys.Prev):
		m.tab = m.tab.Prev()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) collectCmd() tea.Cmd {
	src, timeout := m.src, m.timeout
	return func() tea.Msg {
		return snapshotMsg(Collect(context.Background(), src, timeout))
	}
}

// Run starts the dashboard in the alternate screen and blocks until the
// user quits.
func Run(src telemetry.Source, target string, interval, timeout time.Duration) error {
	_, err := tea.NewProgram(NewModel(src, target, interval, timeout), tea.WithAltScreen()).Run()
	return err
}
