// Package pool keeps a bounded set of reusable SSH channels to the one
// monitored host. Channels are created lazily, probed before reuse and
// evicted silently when the probe fails.
package pool

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/sshsshje/sshsshje/pkg/sshutil"
)

// Defaults applied by New when Options leaves a field zero.
const (
	DefaultMaxSize        = 5
	DefaultConnectTimeout = 10 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
)

// ProbeCommand is the no-op run against an idle channel before handing it out.
const ProbeCommand = `echo "test"`

const connectFailureMessage = "Cannot connect to remote server"

// ErrPoolExhausted is returned by Acquire when every channel is checked out
// and the pool is at its maximum size.
var ErrPoolExhausted = errors.New(errors.ErrPool,
	"SSH connection pool exhausted",
	"Retry shortly or raise pool.max_size")

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New(errors.ErrPool,
	"SSH connection pool is closed",
	"")

// IsConnectFailure reports whether err came from a failed dial in Acquire.
func IsConnectFailure(err error) bool {
	var sErr *errors.Error
	return stderrors.As(err, &sErr) && sErr.Code == errors.ErrSSH && sErr.Message == connectFailureMessage
}

// State is the lifecycle state of a Channel.
type State int

const (
	Idle State = iota
	InUse
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InUse:
		return "in_use"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Channel is one pooled SSH connection. Callers get it from Acquire and must
// hand it back with Release.
type Channel struct {
	ID       string
	client   sshutil.SSHClient
	state    State
	lastUsed time.Time
}

// Client returns the underlying SSH client.
func (c *Channel) Client() sshutil.SSHClient {
	return c.client
}

// Options tunes a Pool. Zero values fall back to the package defaults.
type Options struct {
	MaxSize        int
	ConnectTimeout time.Duration
	ProbeTimeout   time.Duration
	Dialer         sshutil.Dialer
	Logger         *slog.Logger
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Total int `json:"total"`
	InUse int `json:"in_use"`
	Idle  int `json:"idle"`
	Max   int `json:"max"`
}

// Pool manages SSH channels for one target.
//
// Invariants: a channel is checked out to at most one caller, and
// InUse <= Total <= Max. Dials happen outside the lock against a reserved
// slot so concurrent Acquire calls cannot overshoot Max.
type Pool struct {
	mu       sync.Mutex
	target   sshutil.Target
	opts     Options
	channels map[string]*Channel
	pending  int
	closed   bool
	log      *slog.Logger
}

// New creates an empty pool for target. No connection is made until the
// first Acquire.
func New(target sshutil.Target, opts Options) *Pool {
	if opts.MaxSize < 1 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = sshutil.DialClient
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	return &Pool{
		target:   target,
		opts:     opts,
		channels: make(map[string]*Channel),
		log:      log.With("component", "pool"),
	}
}

// Target returns the endpoint every channel connects to.
func (p *Pool) Target() sshutil.Target {
	return p.target
}

// Acquire returns a live channel marked in use. Idle channels are probed
// first and evicted if the probe fails; if none survive, a new channel is
// dialed while below MaxSize. Fails with ErrPoolExhausted when full, or a
// connect failure (see IsConnectFailure) when the dial fails.
func (p *Pool) Acquire(ctx context.Context) (*Channel, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		ch := p.takeIdle()
		if ch == nil {
			break // still holding mu
		}
		p.mu.Unlock()

		if p.isAlive(ctx, ch) {
			return ch, nil
		}
		if ctx.Err() != nil {
			// The caller gave up; the probe result says nothing about the channel.
			p.Release(ch)
			return nil, errors.WrapWithCode(ctx.Err(), errors.ErrPool, "Acquire cancelled", "")
		}
		p.log.Debug("evicting stale channel", "channel", ch.ID)
		p.evict(ch)
	}

	if len(p.channels)+p.pending >= p.opts.MaxSize {
		p.mu.Unlock()
		return nil, ErrPoolExhausted
	}
	p.pending++
	p.mu.Unlock()

	client, err := p.opts.Dialer(p.target, p.opts.ConnectTimeout)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending--

	if err != nil {
		p.log.Warn("dial failed", "target", p.target.String(), "error", errors.Summary(err))
		return nil, errors.WrapWithCode(err, errors.ErrSSH, connectFailureMessage,
			"Check SSH_HOST, SSH_PORT and credentials")
	}
	if p.closed {
		_ = client.Close()
		return nil, ErrPoolClosed
	}

	ch := &Channel{
		ID:       uuid.NewString(),
		client:   client,
		state:    InUse,
		lastUsed: time.Now(),
	}
	p.channels[ch.ID] = ch
	p.log.Debug("opened channel", "channel", ch.ID, "total", len(p.channels))
	return ch, nil
}

// takeIdle marks the first idle channel in use and returns it. Must be
// called with mu held.
func (p *Pool) takeIdle() *Channel {
	for _, ch := range p.channels {
		if ch.state == Idle {
			ch.state = InUse
			return ch
		}
	}
	return nil
}

// Release returns a channel to the idle set. Unknown channels and channels
// that are not checked out are ignored.
func (p *Pool) Release(ch *Channel) {
	if ch == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.channels[ch.ID]; !ok || cur != ch || ch.state != InUse {
		return
	}
	ch.state = Idle
	ch.lastUsed = time.Now()
}

// Close closes every channel and rejects further Acquire calls. Safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for id, ch := range p.channels {
		if ch.client != nil {
			_ = ch.client.Close()
		}
		ch.state = Closed
		delete(p.channels, id)
	}
}

// Stats returns current counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{Total: len(p.channels), Max: p.opts.MaxSize}
	for _, ch := range p.channels {
		if ch.state == InUse {
			s.InUse++
		} else {
			s.Idle++
		}
	}
	return s
}

// evict closes and removes a channel.
func (p *Pool) evict(ch *Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ch.client != nil {
		_ = ch.client.Close()
	}
	ch.state = Closed
	delete(p.channels, ch.ID)
}

// isAlive runs the probe command with the probe timeout.
func (p *Pool) isAlive(ctx context.Context, ch *Channel) bool {
	if ch == nil || ch.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.ProbeTimeout)
	defer cancel()

	_, _, code, err := ch.client.ExecContext(ctx, ProbeCommand)
	return err == nil && code == 0
}
