package telemetry

import (
	"context"
	"time"

	"github.com/sshsshje/sshsshje/internal/actions"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/runner"
)

// probed is the part shared by sources that run real probe scripts through
// an Executor.
type probed struct {
	exec          runner.Executor
	col           *collector.Collector
	acts          *actions.Actions
	healthTimeout time.Duration
	now           func() time.Time
}

func newProbed(exec runner.Executor, colOpts collector.Options, actOpts actions.Options, healthTimeout time.Duration) probed {
	if healthTimeout <= 0 {
		healthTimeout = runner.HealthTimeout
	}
	now := colOpts.Now
	if now == nil {
		now = time.Now
	}
	return probed{
		exec:          exec,
		col:           collector.New(exec, colOpts),
		acts:          actions.New(exec, actOpts),
		healthTimeout: healthTimeout,
		now:           now,
	}
}

func (p probed) System(ctx context.Context) (collector.SystemMetrics, error) {
	return p.col.System(ctx)
}

func (p probed) Services(ctx context.Context) (collector.ServicesSummary, error) {
	return p.col.Services(ctx)
}

func (p probed) Containers(ctx context.Context) (collector.ContainersSummary, error) {
	return p.col.Containers(ctx)
}

func (p probed) Applications(ctx context.Context) collector.ApplicationsSummary {
	return p.col.Applications(ctx)
}

func (p probed) Security(ctx context.Context) (collector.SecuritySnapshot, error) {
	return p.col.Security(ctx)
}

func (p probed) Diagnostics(ctx context.Context) (collector.Diagnostics, error) {
	return p.col.Diagnostics(ctx)
}

func (p probed) History(_ context.Context, days int) (collector.History, error) {
	return p.col.History(days), nil
}

func (p probed) Restart(ctx context.Context, kind, name string) (actions.RestartOutcome, error) {
	return p.acts.Restart(ctx, kind, name)
}

func (p probed) Resolve(ctx context.Context, issueID string) (actions.ResolveOutcome, error) {
	return p.acts.Resolve(ctx, issueID)
}

// health runs HealthCommand. Only a connection failure makes the source
// unhealthy; a command that ran but failed is reported via SSHConnection.
func (p probed) health(ctx context.Context, source string) Health {
	h := Health{Source: source, Timestamp: p.now().Unix()}

	res := p.exec.Run(ctx, HealthCommand, p.healthTimeout)
	if err := res.ConnectionError(); err != nil {
		h.Status = StatusUnhealthy
		h.Error = res.Stderr
		return h
	}

	h.Status = StatusHealthy
	h.SSHConnection = res.Success
	return h
}
