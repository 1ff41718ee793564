package sshutil

import (
	"context"
	"time"
)

// SSHClient defines the interface for SSH command execution.
// Both the real Client and the mock in sshutil/testing satisfy it, so the
// pool and runner can be tested without a live server.
type SSHClient interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecContext is Exec bounded by ctx.
	ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error)

	// Close closes the SSH connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string

	// GetAddress returns the resolved host:port address.
	GetAddress() string
}

// Dialer opens a new client to the target. DialClient is the production one.
type Dialer func(target Target, timeout time.Duration) (SSHClient, error)

// DialClient adapts Dial to the Dialer signature.
func DialClient(target Target, timeout time.Duration) (SSHClient, error) {
	c, err := Dial(target, timeout)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ SSHClient = (*Client)(nil)
