// Package actions runs the state-changing operations: restarting a service
// or container, and remediating a diagnosed issue. Nothing here is
// transactional; a failed restart is reported, not rolled back.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sshsshje/sshsshje/internal/collector"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/internal/runner"
)

// Restart targets.
const (
	TargetService   = "service"
	TargetContainer = "container"
)

// CleanupCommand removes week-old temp files and trims the journal.
const CleanupCommand = "find /tmp -type f -atime +7 -delete && journalctl --vacuum-time=7d"

// RestartOutcome is returned by a successful restart.
type RestartOutcome struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Details runner.Result `json:"details"`
	Mock    bool          `json:"mock,omitempty"`
}

// ResolveOutcome lists what Resolve actually did. Success is always true.
type ResolveOutcome struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ActionsTaken []string `json:"actions_taken"`
	Mock         bool     `json:"mock,omitempty"`
}

// Options configures Actions.
type Options struct {
	// User is the remote login. Privileged commands get "sudo -n" unless it
	// is root.
	User    string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Actions runs restarts and remediations through an Executor.
type Actions struct {
	exec    runner.Executor
	sudo    bool
	timeout time.Duration
	log     *slog.Logger
}

// New creates Actions over exec.
func New(exec runner.Executor, opts Options) *Actions {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = runner.ActionTimeout
	}
	return &Actions{
		exec:    exec,
		sudo:    opts.User != "" && opts.User != "root",
		timeout: timeout,
		log:     log.With("component", "actions"),
	}
}

// privileged prefixes each command in a && chain with sudo when needed.
func (a *Actions) privileged(cmd string) string {
	if !a.sudo {
		return cmd
	}
	parts := strings.Split(cmd, " && ")
	for i, p := range parts {
		parts[i] = "sudo -n " + p
	}
	return strings.Join(parts, " && ")
}

// RestartCommand builds the command for a restart, validating both inputs.
func (a *Actions) RestartCommand(kind, name string) (string, error) {
	if kind != TargetService && kind != TargetContainer {
		return "", errors.New(errors.ErrInput, "Type must be 'service' or 'container'", "")
	}
	if !collector.ValidServiceName(name) {
		return "", errors.New(errors.ErrInput,
			fmt.Sprintf("Invalid %s name %q", kind, name),
			"Names may contain letters, digits, '@', '.', '_' and '-'")
	}
	if kind == TargetService {
		return a.privileged("systemctl restart " + name), nil
	}
	return "docker restart " + name, nil
}

// Restart restarts a systemd service or docker container.
func (a *Actions) Restart(ctx context.Context, kind, name string) (RestartOutcome, error) {
	cmd, err := a.RestartCommand(kind, name)
	if err != nil {
		return RestartOutcome{}, err
	}

	a.log.Info("restarting", "type", kind, "name", name)
	res := a.exec.Run(ctx, cmd, a.timeout)
	if err := res.ConnectionError(); err != nil {
		return RestartOutcome{Details: res}, err
	}
	if !res.Success {
		a.log.Warn("restart failed", "type", kind, "name", name, "exit_status", res.ExitStatus)
		return RestartOutcome{Details: res}, errors.New(errors.ErrAction,
			fmt.Sprintf("Failed to restart %s %s: %s", kind, name, strings.TrimSpace(res.Stderr)),
			"")
	}

	return RestartOutcome{
		Success: true,
		Message: fmt.Sprintf("Successfully restarted %s %s", kind, name),
		Details: res,
	}, nil
}

// Resolve applies the remediation for an issue ID. Issues with no
// remediation, or whose remediation fails, resolve with no actions taken.
// Only connection-level failures are returned as errors.
func (a *Actions) Resolve(ctx context.Context, issueID string) (ResolveOutcome, error) {
	out := ResolveOutcome{
		Success:      true,
		Message:      fmt.Sprintf("Issue %s resolved", issueID),
		ActionsTaken: []string{},
	}

	ref := ParseIssueID(issueID)
	var (
		cmd    string
		action string
	)
	switch ref.Kind {
	case collector.IssueDiskFull:
		cmd = a.privileged(CleanupCommand)
		action = "Cleaned temporary files and old logs"
	case collector.IssueServiceStopped:
		cmd = a.privileged("systemctl restart " + ref.Target)
		action = fmt.Sprintf("Restarted %s service", ref.Target)
	default:
		a.log.Info("no remediation for issue", "issue", issueID)
		return out, nil
	}

	res := a.exec.Run(ctx, cmd, a.timeout)
	if err := res.ConnectionError(); err != nil {
		return out, err
	}
	if res.Success {
		out.ActionsTaken = append(out.ActionsTaken, action)
	} else {
		a.log.Warn("remediation failed", "issue", issueID, "exit_status", res.ExitStatus, "stderr", res.Stderr)
	}
	return out, nil
}
