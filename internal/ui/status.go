package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sshsshje/sshsshje/internal/collector"
)

// StatusReport is everything the status command shows. Nil sections are
// rendered as unavailable with the matching entry from Errors.
type StatusReport struct {
	Source       string
	Target       string
	Connected    bool
	System       *collector.SystemMetrics
	Services     *collector.ServicesSummary
	Containers   *collector.ContainersSummary
	Applications *collector.ApplicationsSummary
	Diagnostics  *collector.Diagnostics
	Errors       map[string]string
}

// Section names used as keys in StatusReport.Errors.
const (
	SectionSystem       = "system"
	SectionServices     = "services"
	SectionContainers   = "containers"
	SectionApplications = "applications"
	SectionDiagnostics  = "diagnostics"
)

const barWidth = 20

var labelStyle = lipgloss.NewStyle().Width(12)

// RenderStatus formats a report as a multi-section terminal view.
func RenderStatus(r StatusReport) string {
	var sb strings.Builder

	conn := ErrorStyle().Render("unreachable")
	if r.Connected {
		conn = SuccessStyle().Render("connected")
	}
	fmt.Fprintf(&sb, "%s %s %s\n", HeaderStyle().Render(r.Target), MutedStyle().Render("("+r.Source+")"), conn)

	sb.WriteString(section("System"))
	if r.System == nil {
		sb.WriteString(unavailable(r.Errors[SectionSystem]))
	} else {
		renderSystem(&sb, r.System)
	}

	sb.WriteString(section("Services"))
	if r.Services == nil {
		sb.WriteString(unavailable(r.Errors[SectionServices]))
	} else {
		renderServices(&sb, r.Services)
	}

	sb.WriteString(section("Containers"))
	if r.Containers == nil {
		sb.WriteString(unavailable(r.Errors[SectionContainers]))
	} else {
		renderContainers(&sb, r.Containers)
	}

	sb.WriteString(section("Applications"))
	if r.Applications == nil {
		sb.WriteString(unavailable(r.Errors[SectionApplications]))
	} else {
		renderApplications(&sb, r.Applications)
	}

	sb.WriteString(section("Diagnostics"))
	if r.Diagnostics == nil {
		sb.WriteString(unavailable(r.Errors[SectionDiagnostics]))
	} else {
		renderDiagnostics(&sb, r.Diagnostics)
	}

	return sb.String()
}

func section(title string) string {
	return "\n" + HeaderStyle().Render(title) + "\n"
}

func unavailable(reason string) string {
	if reason == "" {
		reason = "no data"
	}
	return "  " + MutedStyle().Render("unavailable: "+reason) + "\n"
}

func padName(name string) string {
	return fmt.Sprintf("%-16s", name)
}

func row(label, value string) string {
	return "  " + labelStyle.Render(label) + value + "\n"
}

func renderSystem(sb *strings.Builder, m *collector.SystemMetrics) {
	sb.WriteString(row("CPU", RenderProgressBar(m.CPUUsage, barWidth)))
	sb.WriteString(row("Memory", RenderProgressBar(m.Memory.Percent, barWidth)+
		MutedStyle().Render(fmt.Sprintf("  %s / %s", FormatBytes(m.Memory.Used), FormatBytes(m.Memory.Total)))))
	root := m.RootDisk()
	sb.WriteString(row("Disk /", RenderProgressBar(root.Percent, barWidth)+
		MutedStyle().Render(fmt.Sprintf("  %s / %s", FormatBytes(root.Used), FormatBytes(root.Total)))))
	sb.WriteString(row("Load", fmt.Sprintf("%.2f %.2f %.2f", m.LoadAverage.Load1, m.LoadAverage.Load5, m.LoadAverage.Load15)))
	sb.WriteString(row("Network", fmt.Sprintf("↑ %s  ↓ %s", FormatBytes(m.Network.BytesSent), FormatBytes(m.Network.BytesRecv))))
}

func renderServices(sb *strings.Builder, s *collector.ServicesSummary) {
	names := make([]string, 0, len(s.Services))
	for name := range s.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := s.Services[name]
		fmt.Fprintf(sb, "  %s %s %s\n", StatusSymbol(svc.Active), padName(name), MutedStyle().Render(svc.Status))
	}
	fmt.Fprintf(sb, "  %d healthy, %d unhealthy\n", s.HealthyCount, s.UnhealthyCount)
}

func renderContainers(sb *strings.Builder, c *collector.ContainersSummary) {
	if c.Error != "" {
		sb.WriteString("  " + WarningStyle().Render(c.Error) + "\n")
	}
	for _, ct := range c.Containers {
		running := ct.State == "running"
		fmt.Fprintf(sb, "  %s %s %s\n", StatusSymbol(running), padName(ct.Name), MutedStyle().Render(ct.Image+"  "+ct.Status))
	}
	fmt.Fprintf(sb, "  %d total, %d running, %d stopped\n", c.Total, c.Running, c.Stopped)
}

func renderApplications(sb *strings.Builder, a *collector.ApplicationsSummary) {
	names := make([]string, 0, len(a.Applications))
	for name := range a.Applications {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		app := a.Applications[name]
		detail := app.URL
		switch {
		case app.StatusCode != nil && app.ResponseTime != nil:
			detail = fmt.Sprintf("%s  %d in %.0fms", app.URL, *app.StatusCode, *app.ResponseTime*1000)
		case app.Error != nil:
			detail = app.URL + "  " + *app.Error
		}
		fmt.Fprintf(sb, "  %s %s %s\n", StatusSymbol(app.Healthy), padName(name), MutedStyle().Render(detail))
	}
}

func renderDiagnostics(sb *strings.Builder, d *collector.Diagnostics) {
	score := fmt.Sprintf("%d/100", d.HealthScore)
	// Health score runs the other way from usage: high is good.
	sb.WriteString(row("Score", lipgloss.NewStyle().Foreground(ThresholdColor(100-float64(d.HealthScore))).Render(score)))
	if len(d.Issues) == 0 {
		sb.WriteString("  " + SuccessStyle().Render("no issues found") + "\n")
		return
	}
	for _, is := range d.Issues {
		style := WarningStyle()
		if is.Severity == collector.SeverityCritical {
			style = ErrorStyle()
		}
		fmt.Fprintf(sb, "  %s %s %s\n", style.Render(SymbolWarning), is.Title, MutedStyle().Render("["+is.ID+"]"))
		if is.Resolution != "" {
			fmt.Fprintf(sb, "    %s\n", MutedStyle().Render(is.Resolution))
		}
	}
}

// FormatBytes renders a byte count with a binary unit, e.g. "1.5 GiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
