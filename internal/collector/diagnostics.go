package collector

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// IssueKind names a class of problem and, with it, the remediation that
// applies.
type IssueKind string

const (
	IssueCPUHigh        IssueKind = "cpu_high"
	IssueMemoryHigh     IssueKind = "memory_high"
	IssueDiskFull       IssueKind = "disk_full"
	IssueServiceStopped IssueKind = "service_stopped"
)

// IDPrefix is the leading part of issue IDs of this kind.
func (k IssueKind) IDPrefix() string {
	if k == IssueServiceStopped {
		return "service"
	}
	return string(k)
}

// IssueID formats an issue ID: "<prefix>_<unix>" or, for kinds with a
// target, "<prefix>_<target>_<unix>".
func IssueID(kind IssueKind, target string, at time.Time) string {
	if target == "" {
		return fmt.Sprintf("%s_%d", kind.IDPrefix(), at.Unix())
	}
	return fmt.Sprintf("%s_%s_%d", kind.IDPrefix(), target, at.Unix())
}

// Thresholds and score weights.
const (
	cpuThreshold    = 80.0
	memoryThreshold = 90.0
	diskThreshold   = 85.0

	cpuPenalty              = 15
	memoryPenalty           = 25
	diskPenalty             = 20
	servicePenalty          = 15
	stoppedContainerPenalty = 10
)

// Diagnostics runs the system, services and containers probes one after
// another and scores the result. Each probe holds one channel at a time.
func (c *Collector) Diagnostics(ctx context.Context) (Diagnostics, error) {
	failed := func(err error) (Diagnostics, error) {
		return Diagnostics{Issues: []Issue{}, Timestamp: c.now().Unix()}, err
	}

	system, err := c.System(ctx)
	if err != nil {
		return failed(err)
	}
	services, err := c.Services(ctx)
	if err != nil {
		return failed(err)
	}
	containers, err := c.Containers(ctx)
	if err != nil {
		return failed(err)
	}

	return Diagnose(system, services, containers, c.now()), nil
}

// Diagnose scores a snapshot. The score starts at 100 and loses a fixed
// weight for each crossed threshold, stopped service and stopped container;
// it never goes below 0. Stopped containers lower the score without
// producing an issue.
func Diagnose(system SystemMetrics, services ServicesSummary, containers ContainersSummary, now time.Time) Diagnostics {
	issues := []Issue{}
	score := 100

	if system.CPUUsage > cpuThreshold {
		issues = append(issues, Issue{
			ID:             IssueID(IssueCPUHigh, "", now),
			Kind:           IssueCPUHigh,
			Severity:       SeverityWarning,
			Category:       CategorySystem,
			Title:          "High CPU usage",
			Description:    fmt.Sprintf("CPU usage is %.1f%%", system.CPUUsage),
			Resolution:     "Check running processes and optimize resource usage",
			CanAutoResolve: false,
		})
		score -= cpuPenalty
	}

	if mem := system.Memory.Percent; mem > memoryThreshold {
		issues = append(issues, Issue{
			ID:             IssueID(IssueMemoryHigh, "", now),
			Kind:           IssueMemoryHigh,
			Severity:       SeverityCritical,
			Category:       CategorySystem,
			Title:          "High memory usage",
			Description:    fmt.Sprintf("Memory usage is %.1f%%", mem),
			Resolution:     "Restart memory-intensive services or increase memory",
			CanAutoResolve: false,
		})
		score -= memoryPenalty
	}

	if disk := system.RootDisk().Percent; disk > diskThreshold {
		issues = append(issues, Issue{
			ID:             IssueID(IssueDiskFull, "", now),
			Kind:           IssueDiskFull,
			Severity:       SeverityWarning,
			Category:       CategorySystem,
			Title:          "Disk space low",
			Description:    fmt.Sprintf("Disk usage is %.1f%%", disk),
			Resolution:     "Clean temporary files and logs",
			CanAutoResolve: true,
		})
		score -= diskPenalty
	}

	names := make([]string, 0, len(services.Services))
	for name := range services.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if services.Services[name].Active {
			continue
		}
		issues = append(issues, Issue{
			ID:             IssueID(IssueServiceStopped, name, now),
			Kind:           IssueServiceStopped,
			Target:         name,
			Severity:       SeverityCritical,
			Category:       CategoryService,
			Title:          fmt.Sprintf("%s service stopped", name),
			Description:    fmt.Sprintf("Service %s is not running", name),
			Resolution:     fmt.Sprintf("Restart %s service", name),
			CanAutoResolve: true,
		})
		score -= servicePenalty
	}

	score -= containers.Stopped * stoppedContainerPenalty

	if score < 0 {
		score = 0
	}
	return Diagnostics{
		Timestamp:   now.Unix(),
		Issues:      issues,
		HealthScore: score,
	}
}
