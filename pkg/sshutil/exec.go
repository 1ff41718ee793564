package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/sshsshje/sshsshje/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Exec runs a command on the remote host and returns the output.
// Returns stdout, stderr, exit code, and any error.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	return c.ExecContext(context.Background(), cmd)
}

// ExecContext runs a command and abandons it when ctx is done. On
// cancellation the session is closed, which tears down the remote process,
// and ctx.Err() is returned wrapped with ErrExec. No output is returned then:
// the session's copy goroutines may still be writing to the buffers.
func (c *Client) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		session.Close()
		return nil, nil, -1, errors.WrapWithCode(ctx.Err(), errors.ErrExec,
			fmt.Sprintf("Command did not finish: %s", cmd),
			"")
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			// Command ran, just had non-zero exit
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"The channel may have dropped mid-command.")
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}
