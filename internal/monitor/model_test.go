package monitor

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/pool"
	"github.com/sshsshje/sshsshje/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock() *telemetry.Mock {
	return telemetry.NewMock(telemetry.MockOptions{Seed: 7})
}

// downSource behaves like a host whose SSH transport is gone.
type downSource struct {
	*telemetry.Mock
}

func (downSource) System(context.Context) (collector.SystemMetrics, error) {
	return collector.SystemMetrics{}, pool.ErrPoolExhausted
}

func (downSource) Health(context.Context) telemetry.Health {
	return telemetry.Health{Status: telemetry.StatusUnhealthy}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestCollect_Mock(t *testing.T) {
	snap := Collect(context.Background(), newMock(), time.Second)

	require.NoError(t, snap.Err)
	assert.Equal(t, telemetry.StatusHealthy, snap.Health.Status)
	assert.NotEmpty(t, snap.Services.Services)
	assert.NotZero(t, snap.System.Memory.Total)
	assert.False(t, snap.Time.IsZero())
}

func TestCollect_ConnectionError(t *testing.T) {
	snap := Collect(context.Background(), downSource{newMock()}, time.Second)

	require.Error(t, snap.Err)
	assert.True(t, errors.IsCode(snap.Err, errors.ErrPool))
	assert.Equal(t, telemetry.StatusUnhealthy, snap.Health.Status)
}

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel(newMock(), "mock", 0, 0)
	assert.Equal(t, DefaultInterval, m.interval)
	assert.Equal(t, DefaultTimeout, m.timeout)
	assert.True(t, m.collecting)
	assert.NotNil(t, m.Init())
}

func TestModel_SnapshotUpdatesHistory(t *testing.T) {
	m := NewModel(newMock(), "mock", time.Second, time.Second)
	snap := Collect(context.Background(), newMock(), time.Second)

	m, cmd := update(t, m, snapshotMsg(snap))

	assert.False(t, m.collecting)
	require.NotNil(t, m.snap)
	assert.Equal(t, 1, m.history.Count())
	assert.NotNil(t, cmd, "schedules the next tick")
}

func TestModel_FailedSnapshotSkipsHistory(t *testing.T) {
	m := NewModel(newMock(), "mock", time.Second, time.Second)
	snap := Collect(context.Background(), downSource{newMock()}, time.Second)

	m, _ = update(t, m, snapshotMsg(snap))

	assert.Zero(t, m.history.Count())
	assert.Contains(t, m.View(), "SSH connection pool exhausted")
	assert.Contains(t, m.View(), "unreachable")
}

func TestModel_TickWhileCollectingDoesNotStack(t *testing.T) {
	m := NewModel(newMock(), "mock", time.Second, time.Second)
	require.True(t, m.collecting)

	m, cmd := update(t, m, tickMsg(time.Now()))
	assert.True(t, m.collecting)
	assert.NotNil(t, cmd)

	m.collecting = false
	m, cmd = update(t, m, tickMsg(time.Now()))
	assert.True(t, m.collecting)
	assert.NotNil(t, cmd)
}

func TestModel_Keys(t *testing.T) {
	m := NewModel(newMock(), "mock", time.Second, time.Second)
	m.collecting = false

	m, _ = update(t, m, keyMsg("tab"))
	assert.Equal(t, TabServices, m.tab)
	m, _ = update(t, m, keyMsg("shift+tab"))
	m, _ = update(t, m, keyMsg("shift+tab"))
	assert.Equal(t, TabIssues, m.tab)

	m, _ = update(t, m, keyMsg("?"))
	assert.True(t, m.help.ShowAll)

	m, cmd := update(t, m, keyMsg("r"))
	assert.True(t, m.collecting)
	assert.NotNil(t, cmd)

	_, cmd = update(t, m, keyMsg("r"))
	assert.Nil(t, cmd, "refresh is ignored while collecting")

	m, cmd = update(t, m, keyMsg("q"))
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_WindowSize(t *testing.T) {
	m := NewModel(newMock(), "mock", time.Second, time.Second)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestModel_ViewTabs(t *testing.T) {
	m := NewModel(newMock(), "root@host:1511", time.Second, time.Second)
	assert.Contains(t, m.View(), "Collecting metrics")

	snap := Collect(context.Background(), newMock(), time.Second)
	m, _ = update(t, m, snapshotMsg(snap))

	view := m.View()
	assert.Contains(t, view, "root@host:1511")
	assert.Contains(t, view, "connected")
	assert.Contains(t, view, "Overview")
	assert.Contains(t, view, "CPU")
	assert.Contains(t, view, "Load")

	m.tab = TabServices
	assert.Contains(t, m.View(), "nginx")

	m.tab = TabContainers
	assert.Contains(t, m.View(), "guacamole-web")
}

func TestTab_Cycle(t *testing.T) {
	assert.Equal(t, TabOverview, TabIssues.Next())
	assert.Equal(t, TabIssues, TabOverview.Prev())
	assert.Equal(t, "Containers", TabContainers.String())
}
