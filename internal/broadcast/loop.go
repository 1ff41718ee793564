package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sshsshje/sshsshje/internal/logger"
)

// Defaults for Loop.
const (
	DefaultInterval     = 30 * time.Second
	DefaultErrorBackoff = 60 * time.Second
)

// SnapshotFunc produces the payload of a system_update message.
type SnapshotFunc func(ctx context.Context) (any, error)

// LoopOptions configures a Loop.
type LoopOptions struct {
	Interval     time.Duration
	ErrorBackoff time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Loop periodically pushes a ping and a fresh snapshot to the registry.
type Loop struct {
	reg      *Registry
	snapshot SnapshotFunc
	interval time.Duration
	backoff  time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewLoop creates a Loop over reg.
func NewLoop(reg *Registry, snapshot SnapshotFunc, opts LoopOptions) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = DefaultErrorBackoff
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{
		reg:      reg,
		snapshot: snapshot,
		interval: opts.Interval,
		backoff:  opts.ErrorBackoff,
		log:      opts.Logger.With("component", "broadcast"),
		now:      opts.Now,
	}
}

// Run broadcasts until ctx is cancelled. A cycle with no subscribers does
// no work at all. A cycle that fails waits ErrorBackoff instead of Interval.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("broadcast loop started", "interval", l.interval)
	defer l.log.Info("broadcast loop stopped")

	for {
		wait := l.interval
		if err := l.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.log.Error("broadcast cycle failed", "error", err, "retry_in", l.backoff)
			wait = l.backoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// cycle runs one round. Panics are turned into errors so a bad snapshot
// cannot take the process down.
func (l *Loop) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in broadcast cycle: %v", r)
		}
	}()

	if l.reg.Len() == 0 {
		return nil
	}

	payload, err := l.snapshot(ctx)
	if err != nil {
		return err
	}

	l.reg.Broadcast(ctx, Message{Type: TypePing, Timestamp: l.now().Unix()})
	n := l.reg.Broadcast(ctx, Message{Type: TypeSystemUpdate, Payload: payload})
	l.log.Debug("broadcast system update", "delivered", n)
	return nil
}

// Welcome sends the immediate snapshot a new subscriber gets on connect.
// A snapshot failure is logged and skipped; a delivery failure drops the
// subscriber.
func (l *Loop) Welcome(ctx context.Context, sub Subscriber) {
	payload, err := l.snapshot(ctx)
	if err != nil {
		l.log.Warn("initial snapshot failed", "subscriber", sub.ID(), "error", err)
		return
	}
	if err := sub.Send(ctx, Message{Type: TypeSystemUpdate, Payload: payload}); err != nil {
		l.log.Warn("initial delivery failed", "subscriber", sub.ID(), "error", err)
		l.reg.Drop(sub)
	}
}
