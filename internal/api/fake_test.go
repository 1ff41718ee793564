package api

import (
	"context"
	"time"

	"github.com/sshsshje/sshsshje/internal/actions"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/telemetry"
)

var testNow = time.Unix(1700000000, 0)

// fakeSource returns canned snapshots; err, when set, is returned by every
// method that can fail.
type fakeSource struct {
	err       error
	panicking bool
	restarts  []string
	resolved  []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) System(context.Context) (collector.SystemMetrics, error) {
	if f.panicking {
		panic("collector exploded")
	}
	if f.err != nil {
		return collector.SystemMetrics{}, f.err
	}
	return collector.SystemMetrics{
		CPUUsage:  12.5,
		Disk:      map[string]collector.DiskUsage{"/": {Total: 100, Used: 40, Free: 60, Percent: 40}},
		Timestamp: testNow.Unix(),
	}, nil
}

func (f *fakeSource) Services(context.Context) (collector.ServicesSummary, error) {
	return collector.ServicesSummary{
		Services:     map[string]collector.ServiceState{"nginx": {Service: "nginx", Active: true, Enabled: true, Status: collector.StatusRunning}},
		HealthyCount: 1,
	}, f.err
}

func (f *fakeSource) Containers(context.Context) (collector.ContainersSummary, error) {
	return collector.ContainersSummary{Containers: []collector.ContainerState{}}, f.err
}

func (f *fakeSource) Applications(context.Context) collector.ApplicationsSummary {
	return collector.ApplicationsSummary{Applications: map[string]collector.AppHealth{}}
}

func (f *fakeSource) Security(context.Context) (collector.SecuritySnapshot, error) {
	return collector.SecuritySnapshot{Timestamp: testNow.Unix()}, f.err
}

func (f *fakeSource) Diagnostics(context.Context) (collector.Diagnostics, error) {
	return collector.Diagnose(collector.SystemMetrics{CPUUsage: 85}, collector.ServicesSummary{}, collector.ContainersSummary{}, testNow), f.err
}

func (f *fakeSource) History(_ context.Context, days int) (collector.History, error) {
	return collector.SyntheticHistory(testNow, days), nil
}

func (f *fakeSource) Restart(_ context.Context, kind, name string) (actions.RestartOutcome, error) {
	a := actions.New(nil, actions.Options{})
	if _, err := a.RestartCommand(kind, name); err != nil {
		return actions.RestartOutcome{}, err
	}
	if f.err != nil {
		return actions.RestartOutcome{}, f.err
	}
	f.restarts = append(f.restarts, kind+"/"+name)
	return actions.RestartOutcome{Success: true, Message: "Successfully restarted " + kind + " " + name}, nil
}

func (f *fakeSource) Resolve(_ context.Context, id string) (actions.ResolveOutcome, error) {
	if f.err != nil {
		return actions.ResolveOutcome{}, f.err
	}
	f.resolved = append(f.resolved, id)
	return actions.ResolveOutcome{Success: true, Message: "Issue " + id + " resolved", ActionsTaken: []string{}}, nil
}

func (f *fakeSource) Health(context.Context) telemetry.Health {
	if f.err != nil {
		return telemetry.Health{Status: telemetry.StatusUnhealthy, Error: errors.Summary(f.err), Source: "fake", Timestamp: testNow.Unix()}
	}
	return telemetry.Health{Status: telemetry.StatusHealthy, SSHConnection: true, Source: "fake", Timestamp: testNow.Unix()}
}

func (f *fakeSource) Close() error { return nil }

var _ telemetry.Source = (*fakeSource)(nil)
