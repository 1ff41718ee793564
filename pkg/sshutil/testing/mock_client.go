// Package testing provides an in-memory SSH client and dialer for tests of
// code that depends on sshutil.SSHClient.
package testing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sshsshje/sshsshje/pkg/sshutil"
)

// ErrConnectionClosed is returned by a closed MockClient.
var ErrConnectionClosed = errors.New("connection closed")

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
	Delay    time.Duration // simulated run time; honors context cancellation
}

// MockClient simulates an SSH connection for testing.
// Commands resolve against registered responses (exact match first, then
// regex patterns); "true" and "echo ..." have built-in behavior and
// anything else exits 127.
type MockClient struct {
	mu       sync.Mutex
	host     string
	address  string
	closed   bool
	broken   error
	commands map[string]CommandResponse
	history  []string
}

// NewMockClient creates a new mock SSH client.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		address:  host + ":22",
		commands: make(map[string]CommandResponse),
	}
}

// Exec runs a command without a deadline.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	return m.ExecContext(context.Background(), cmd)
}

// ExecContext resolves cmd to a response, sleeping for its Delay unless ctx
// finishes first.
func (m *MockClient) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, -1, ErrConnectionClosed
	}
	if m.broken != nil {
		m.mu.Unlock()
		return nil, nil, -1, m.broken
	}
	m.history = append(m.history, cmd)
	resp := m.lookup(cmd)
	m.mu.Unlock()

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, nil, -1, ctx.Err()
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return nil, nil, -1, ctx.Err()
	}

	return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
}

// lookup must be called with mu held.
func (m *MockClient) lookup(cmd string) CommandResponse {
	if resp, ok := m.commands[cmd]; ok {
		return resp
	}
	for pattern, resp := range m.commands {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp
		}
	}

	trimmed := strings.TrimSpace(cmd)
	switch {
	case trimmed == "true":
		return CommandResponse{}
	case strings.HasPrefix(trimmed, "echo "):
		arg := strings.Trim(strings.TrimPrefix(trimmed, "echo "), `"'`)
		return CommandResponse{Stdout: []byte(arg + "\n")}
	}

	name := strings.Fields(trimmed)
	if len(name) == 0 {
		return CommandResponse{}
	}
	return CommandResponse{
		Stderr:   []byte(fmt.Sprintf("sh: %s: command not found\n", name[0])),
		ExitCode: 127,
	}
}

// Close marks the connection as closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Break makes every subsequent command fail with err, simulating a dropped
// transport that has not been closed locally.
func (m *MockClient) Break(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broken = err
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// GetAddress returns the host:port address.
func (m *MockClient) GetAddress() string {
	return m.address
}

// SetCommandResponse registers a canned response for a command pattern.
// The pattern can be an exact string or a regex pattern.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[pattern] = resp
}

// Commands returns every command executed so far, in order.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

var _ sshutil.SSHClient = (*MockClient)(nil)

// MockDialer hands out MockClients and records every dial attempt.
type MockDialer struct {
	mu      sync.Mutex
	clients []*MockClient
	err     error
	delay   time.Duration

	// Setup, when set, configures each client before it is returned.
	Setup func(*MockClient)
}

// NewMockDialer creates a dialer whose clients answer the built-in commands.
func NewMockDialer() *MockDialer {
	return &MockDialer{}
}

// Dial satisfies sshutil.Dialer.
func (d *MockDialer) Dial(target sshutil.Target, timeout time.Duration) (sshutil.SSHClient, error) {
	d.mu.Lock()
	err, delay := d.err, d.delay
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}

	c := NewMockClient(target.Host)
	if d.Setup != nil {
		d.Setup(c)
	}

	d.mu.Lock()
	d.clients = append(d.clients, c)
	d.mu.Unlock()
	return c, nil
}

// FailWith makes subsequent dials return err. Pass nil to recover.
func (d *MockDialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// SetDelay makes each dial block for the given duration.
func (d *MockDialer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Clients returns every client successfully dialed.
func (d *MockDialer) Clients() []*MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockClient, len(d.clients))
	copy(out, d.clients)
	return out
}

// DialCount returns the number of successful dials.
func (d *MockDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}
