package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/telemetry"
	"github.com/sshsshje/sshsshje/internal/ui"
)

const (
	sparkWidth  = 30
	gaugeWidth  = 20
	labelWidth  = 10
	minBodyRows = 5
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true).
			Padding(0, 1)

	tabStyle       = lipgloss.NewStyle().Foreground(ui.ColorMuted).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(ui.ColorAccentAlt).Bold(true).Underline(true).Padding(0, 1)

	bodyStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().Padding(0, 1)
	label       = lipgloss.NewStyle().Width(labelWidth).Foreground(ui.ColorMuted)
)

func (m Model) renderDashboard() string {
	sections := []string{m.renderHeader(), m.renderTabs()}

	body := m.renderBody()
	style := bodyStyle
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	sections = append(sections, style.Render(body), footerStyle.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	status := ui.MutedStyle().Render("connecting")
	if m.snap != nil {
		if m.snap.Err != nil || m.snap.Health.Status != telemetry.StatusHealthy {
			status = ui.ErrorStyle().Render("unreachable")
		} else {
			status = ui.SuccessStyle().Render("connected")
		}
	}

	right := ""
	if m.collecting {
		right = m.spinner.View() + " refreshing"
	} else if m.snap != nil {
		right = ui.MutedStyle().Render("updated " + m.snap.Time.Format(time.TimeOnly))
	}

	return headerStyle.Render("sshsshje") + " " + m.target + " " + status + "  " + right
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, int(tabCount))
	for t := TabOverview; t < tabCount; t++ {
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderBody() string {
	if m.snap == nil {
		return padRows(m.spinner.View() + " Collecting metrics...")
	}
	if m.snap.Err != nil {
		return padRows(ui.ErrorStyle().Render(errors.Summary(m.snap.Err)) + "\n" +
			ui.MutedStyle().Render(fmt.Sprintf("retrying every %s", m.interval)))
	}

	switch m.tab {
	case TabServices:
		return padRows(renderServices(m.snap.Services))
	case TabContainers:
		return padRows(renderContainers(m.snap.Containers))
	case TabIssues:
		return padRows(renderIssues(m.snap.Diagnostics))
	default:
		return padRows(m.renderOverview())
	}
}

func (m Model) renderOverview() string {
	s := m.snap.System
	var sb strings.Builder

	gauge := func(name string, pct float64, series []float64) {
		fmt.Fprintf(&sb, "%s%s  %s\n", label.Render(name), ui.RenderProgressBar(pct, gaugeWidth), ui.RenderSparkline(series, sparkWidth))
	}
	gauge("CPU", s.CPUUsage, m.history.CPU(sparkWidth))
	gauge("Memory", s.Memory.Percent, m.history.Memory(sparkWidth))
	gauge("Disk /", s.RootDisk().Percent, m.history.Disk(sparkWidth))

	fmt.Fprintf(&sb, "%s%.2f %.2f %.2f\n", label.Render("Load"), s.LoadAverage.Load1, s.LoadAverage.Load5, s.LoadAverage.Load15)

	sent, recv := m.history.NetworkRate()
	fmt.Fprintf(&sb, "%s↑ %s/s  ↓ %s/s\n", label.Render("Network"), ui.FormatBytes(int64(sent)), ui.FormatBytes(int64(recv)))

	svc := m.snap.Services
	ct := m.snap.Containers
	fmt.Fprintf(&sb, "%s%d healthy, %d unhealthy\n", label.Render("Services"), svc.HealthyCount, svc.UnhealthyCount)
	fmt.Fprintf(&sb, "%s%d running of %d\n", label.Render("Containers"), ct.Running, ct.Total)
	fmt.Fprintf(&sb, "%s%d/100, %d issue(s)", label.Render("Health"), m.snap.Diagnostics.HealthScore, len(m.snap.Diagnostics.Issues))

	return sb.String()
}

func renderServices(s collector.ServicesSummary) string {
	if len(s.Services) == 0 {
		return ui.MutedStyle().Render("no services monitored")
	}
	names := make([]string, 0, len(s.Services))
	for name := range s.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		st := s.Services[name]
		enabled := "disabled"
		if st.Enabled {
			enabled = "enabled"
		}
		lines = append(lines, fmt.Sprintf("%s %-16s %s", ui.StatusSymbol(st.Active), name, ui.MutedStyle().Render(st.Status+", "+enabled)))
	}
	return strings.Join(lines, "\n")
}

func renderContainers(c collector.ContainersSummary) string {
	if c.Error != "" {
		return ui.WarningStyle().Render(c.Error)
	}
	if len(c.Containers) == 0 {
		return ui.MutedStyle().Render("no containers")
	}
	lines := make([]string, 0, len(c.Containers))
	for _, ct := range c.Containers {
		lines = append(lines, fmt.Sprintf("%s %-20s %-24s %s", ui.StatusSymbol(ct.State == "running"), ct.Name, ct.Image, ui.MutedStyle().Render(ct.Status)))
	}
	return strings.Join(lines, "\n")
}

func renderIssues(d collector.Diagnostics) string {
	if len(d.Issues) == 0 {
		return ui.SuccessStyle().Render(ui.SymbolSuccess + " no issues found")
	}
	lines := make([]string, 0, len(d.Issues)*2)
	for _, is := range d.Issues {
		style := ui.WarningStyle()
		if is.Severity == collector.SeverityCritical {
			style = ui.ErrorStyle()
		}
		lines = append(lines, style.Render(ui.SymbolWarning+" "+is.Title)+" "+ui.MutedStyle().Render(is.ID))
		lines = append(lines, "  "+ui.MutedStyle().Render(is.Resolution))
	}
	return strings.Join(lines, "\n")
}

// padRows keeps the body box from collapsing between refreshes.
func padRows(s string) string {
	if n := strings.Count(s, "\n") + 1; n < minBodyRows {
		s += strings.Repeat("\n", minBodyRows-n)
	}
	return s
}
