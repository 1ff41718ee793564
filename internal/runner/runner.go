// Package runner executes single commands and normalizes their outcome into
// a Result. Run never returns an error: connection and timeout failures are
// folded into a Result with ExitStatus -1 so callers can treat every outcome
// the same way.
package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/internal/pool"
)

// Timeouts used across the gateway.
const (
	DefaultTimeout = 30 * time.Second
	ActionTimeout  = 60 * time.Second
	HealthTimeout  = 5 * time.Second
)

// Result is the outcome of one command.
type Result struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitStatus int    `json:"exit_status"`
	Success    bool   `json:"success"`

	// Err holds the failure that kept the command from running or finishing,
	// if any. A non-zero exit alone leaves it nil.
	Err error `json:"-"`
}

// ConnectionError returns Err when it is a pool or SSH failure, nil
// otherwise. Callers use it to tell "host unreachable" from "command failed".
func (r Result) ConnectionError() error {
	if r.Err == nil {
		return nil
	}
	switch errors.CodeOf(r.Err) {
	case errors.ErrPool, errors.ErrSSH:
		return r.Err
	}
	return nil
}

// Lines returns stdout split into trimmed, non-empty lines.
func (r Result) Lines() []string {
	var out []string
	for _, line := range strings.Split(r.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Failed builds the Result for a command that never produced an exit status.
func Failed(err error) Result {
	return Result{
		Stderr:     errors.Summary(err),
		ExitStatus: -1,
		Err:        err,
	}
}

func completed(stdout, stderr []byte, code int) Result {
	return Result{
		Stdout:     string(stdout),
		Stderr:     string(stderr),
		ExitStatus: code,
		Success:    code == 0,
	}
}

// Executor runs one command with a timeout. A zero timeout means
// DefaultTimeout.
type Executor interface {
	Run(ctx context.Context, command string, timeout time.Duration) Result
}

// ChannelSource is the part of pool.Pool the runner needs.
type ChannelSource interface {
	Acquire(ctx context.Context) (*pool.Channel, error)
	Release(ch *pool.Channel)
}

// Runner executes commands on pooled SSH channels.
type Runner struct {
	pool ChannelSource
	log  *slog.Logger
}

// New creates a Runner over the given pool.
func New(p ChannelSource, log *slog.Logger) *Runner {
	if log == nil {
		log = logger.Noop()
	}
	return &Runner{pool: p, log: log.With("component", "runner")}
}

// Run borrows a channel, runs command and always gives the channel back.
func (r *Runner) Run(ctx context.Context, command string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ch, err := r.pool.Acquire(ctx)
	if err != nil {
		r.log.Warn("no channel for command", "error", errors.Summary(err))
		return Failed(err)
	}
	defer r.pool.Release(ch)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, code, err := ch.Client().ExecContext(runCtx, command)
	if err != nil {
		if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = timeoutError(timeout, err)
		}
		r.log.Warn("command failed", "channel", ch.ID, "error", errors.Summary(err))
		return Failed(err)
	}

	r.log.Debug("command finished",
		"channel", ch.ID,
		"exit_status", code,
		"duration", time.Since(start).Round(time.Millisecond))
	return completed(stdout, stderr, code)
}

func timeoutError(timeout time.Duration, cause error) *errors.Error {
	return errors.WrapWithCode(cause, errors.ErrExec,
		fmt.Sprintf("Command timed out after %s", timeout),
		"")
}

var _ Executor = (*Runner)(nil)

// Func adapts a plain function to Executor.
type Func func(ctx context.Context, command string, timeout time.Duration) Result

// Run calls f.
func (f Func) Run(ctx context.Context, command string, timeout time.Duration) Result {
	return f(ctx, command, timeout)
}
