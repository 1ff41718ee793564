package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"time"

	"github.com/sshsshje/sshsshje/internal/errors"
)

// LocalExecutor runs commands on the gateway host through the user's shell.
// It backs the "local" telemetry source.
type LocalExecutor struct {
	// Shell overrides $SHELL. Defaults to /bin/sh when both are empty.
	Shell string
}

// Run executes command with `<shell> -c` and captures its output.
func (l LocalExecutor) Run(ctx context.Context, command string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	shell := l.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Failed(timeoutError(timeout, ctx.Err()))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return completed(stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode())
		}
		return Failed(errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't run the command locally",
			"Make sure the command exists and is executable."))
	}

	return completed(stdout.Bytes(), stderr.Bytes(), 0)
}

var _ Executor = LocalExecutor{}
