// Package telemetry puts every metric family and action behind one Source
// interface so the API and the broadcast loop do not care whether numbers
// come from an SSH host, the gateway itself, or a generator.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/sshsshje/sshsshje/internal/actions"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/pool"
	"github.com/sshsshje/sshsshje/internal/runner"
)

// HealthCommand is run by Health to prove the transport works.
const HealthCommand = "echo 'connected'"

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Source is a provider of snapshots and actions.
//
// Methods returning an error only do so for connection-level failures
// (codes POOL and SSH) and, for actions, bad input or a failed command.
// Everything else degrades into zero values inside the snapshot.
type Source interface {
	Name() string

	System(ctx context.Context) (collector.SystemMetrics, error)
	Services(ctx context.Context) (collector.ServicesSummary, error)
	Containers(ctx context.Context) (collector.ContainersSummary, error)
	Applications(ctx context.Context) collector.ApplicationsSummary
	Security(ctx context.Context) (collector.SecuritySnapshot, error)
	Diagnostics(ctx context.Context) (collector.Diagnostics, error)
	History(ctx context.Context, days int) (collector.History, error)

	Restart(ctx context.Context, kind, name string) (actions.RestartOutcome, error)
	Resolve(ctx context.Context, issueID string) (actions.ResolveOutcome, error)

	Health(ctx context.Context) Health
	Close() error
}

// Health is the liveness report served at /health.
type Health struct {
	Status        string      `json:"status"`
	SSHConnection bool        `json:"ssh_connection"`
	Source        string      `json:"source"`
	Pool          *pool.Stats `json:"pool,omitempty"`
	Error         string      `json:"error,omitempty"`
	Timestamp     int64       `json:"timestamp"`
}

// Open builds the Source selected by cfg.Source.
func Open(cfg *config.Config, log *slog.Logger) (Source, error) {
	colOpts := collector.Options{
		Services:       cfg.Monitor.Services,
		Applications:   cfg.ApplicationList(),
		CommandTimeout: cfg.Commands.DefaultTimeout,
		Logger:         log,
	}
	actOpts := actions.Options{
		User:    cfg.Remote.User,
		Timeout: cfg.Commands.ActionTimeout,
		Logger:  log,
	}

	switch cfg.Source {
	case config.SourceRemote:
		p := pool.New(cfg.Target(), pool.Options{
			MaxSize:        cfg.Pool.MaxSize,
			ConnectTimeout: cfg.Pool.ConnectTimeout,
			ProbeTimeout:   cfg.Pool.ProbeTimeout,
			Logger:         log,
		})
		return NewRemote(p, colOpts, actOpts, cfg.Commands.HealthTimeout, log), nil
	case config.SourceLocal:
		actOpts.User = currentUser()
		return NewLocal(runner.LocalExecutor{}, colOpts, actOpts, cfg.Commands.HealthTimeout), nil
	case config.SourceMock:
		return NewMock(MockOptions{
			Applications: colOpts.Applications,
			Logger:       log,
		}), nil
	default:
		return nil, errors.New(errors.ErrConfig,
			"Unknown telemetry source "+cfg.Source,
			"Set TELEMETRY_SOURCE to remote, mock or local")
	}
}
