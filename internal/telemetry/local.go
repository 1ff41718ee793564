package telemetry

import (
	"context"
	"os/user"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/sshsshje/sshsshje/internal/actions"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/runner"
)

// cpuSampleWindow matches the one-second gap of the remote /proc/stat probe.
const cpuSampleWindow = time.Second

// Local monitors the machine the gateway runs on. System metrics come from
// gopsutil; services, containers and security run the same probe scripts as
// Remote through a local shell.
type Local struct {
	probed
}

// NewLocal builds a Local source over exec, normally runner.LocalExecutor.
func NewLocal(exec runner.Executor, colOpts collector.Options, actOpts actions.Options, healthTimeout time.Duration) *Local {
	return &Local{probed: newProbed(exec, colOpts, actOpts, healthTimeout)}
}

func (l *Local) Name() string { return config.SourceLocal }

// System reads host counters with gopsutil. Each family fails on its own
// and leaves zero values behind.
func (l *Local) System(ctx context.Context) (collector.SystemMetrics, error) {
	m := collector.SystemMetrics{
		Disk:      map[string]collector.DiskUsage{},
		Timestamp: l.now().Unix(),
	}

	if pct, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(pct) > 0 {
		m.CPUUsage = round1(pct[0])
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.Memory = collector.Memory{
			Total:     int64(vm.Total),
			Available: int64(vm.Available),
			Percent:   round1(vm.UsedPercent),
			Used:      int64(vm.Used),
			Free:      int64(vm.Free),
		}
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		m.Disk["/"] = collector.DiskUsage{
			Total:   int64(du.Total),
			Used:    int64(du.Used),
			Free:    int64(du.Free),
			Percent: round1(du.UsedPercent),
		}
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAverage = collector.LoadAverage{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	}

	if io, err := net.IOCountersWithContext(ctx, false); err == nil && len(io) > 0 {
		m.Network = collector.Network{
			BytesSent:   int64(io[0].BytesSent),
			BytesRecv:   int64(io[0].BytesRecv),
			PacketsSent: int64(io[0].PacketsSent),
			PacketsRecv: int64(io[0].PacketsRecv),
		}
	}

	return m, nil
}

// Diagnostics scores gopsutil system metrics together with the probed
// services and containers, collected in turn.
func (l *Local) Diagnostics(ctx context.Context) (collector.Diagnostics, error) {
	system, err := l.System(ctx)
	if err != nil {
		return collector.Diagnostics{}, err
	}
	services, err := l.Services(ctx)
	if err != nil {
		return collector.Diagnostics{}, err
	}
	containers, err := l.Containers(ctx)
	if err != nil {
		return collector.Diagnostics{}, err
	}

	return collector.Diagnose(system, services, containers, l.now()), nil
}

func (l *Local) Health(ctx context.Context) Health {
	return l.health(ctx, l.Name())
}

func (l *Local) Close() error { return nil }

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// currentUser is the login sudo decisions are based on for local actions.
func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

var _ Source = (*Local)(nil)
