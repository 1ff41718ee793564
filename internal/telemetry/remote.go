package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/sshsshje/sshsshje/internal/actions"
	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/pool"
	"github.com/sshsshje/sshsshje/internal/runner"
)

// Remote collects from one SSH host through a channel pool.
type Remote struct {
	probed
	pool   *pool.Pool
	runner *runner.Runner
}

// NewRemote wires a runner, collectors and actions onto p. The Remote owns
// p from here on and closes it in Close.
func NewRemote(p *pool.Pool, colOpts collector.Options, actOpts actions.Options, healthTimeout time.Duration, log *slog.Logger) *Remote {
	r := runner.New(p, log)
	return &Remote{
		probed: newProbed(r, colOpts, actOpts, healthTimeout),
		pool:   p,
		runner: r,
	}
}

func (r *Remote) Name() string { return config.SourceRemote }

// Runner exposes the command runner for one-off commands.
func (r *Remote) Runner() *runner.Runner { return r.runner }

// Health probes the host and includes pool occupancy.
func (r *Remote) Health(ctx context.Context) Health {
	h := r.health(ctx, r.Name())
	stats := r.pool.Stats()
	h.Pool = &stats
	return h
}

// Close closes every pooled channel.
func (r *Remote) Close() error {
	r.pool.Close()
	return nil
}

var _ Source = (*Remote)(nil)
