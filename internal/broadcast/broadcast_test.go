package broadcast

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sshsshje/sshsshje/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	id string

	mu     sync.Mutex
	msgs   []Message
	fail   error
	closed bool
}

func newFakeSub(id string) *fakeSub { return &fakeSub{id: id} }

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSub) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSub) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeSub) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.msgs...)
}

func (f *fakeSub) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type countingSnapshot struct {
	calls atomic.Int32
	err   error
}

func (c *countingSnapshot) fn(context.Context) (any, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return map[string]float64{"cpu_usage": 12.5}, nil
}

func TestRegistry_AddRemoveLen(t *testing.T) {
	r := NewRegistry(nil)
	a, b := newFakeSub("a"), newFakeSub("b")

	r.Add(a)
	r.Add(b)
	assert.Equal(t, 2, r.Len())

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, 1, r.Len())
	assert.False(t, a.isClosed(), "Remove must not close")
}

func TestRegistry_BroadcastDelivers(t *testing.T) {
	r := NewRegistry(nil)
	a, b := newFakeSub("a"), newFakeSub("b")
	r.Add(a)
	r.Add(b)

	n := r.Broadcast(context.Background(), Message{Type: TypePing, Timestamp: 1})
	assert.Equal(t, 2, n)
	assert.Len(t, a.messages(), 1)
	assert.Len(t, b.messages(), 1)
}

func TestRegistry_FailedSubscriberIsDroppedImmediately(t *testing.T) {
	capture, log := logger.NewCapture()
	r := NewRegistry(log)
	good, bad := newFakeSub("good"), newFakeSub("bad")
	bad.failWith(stderrors.New("broken pipe"))
	r.Add(good)
	r.Add(bad)

	n := r.Broadcast(context.Background(), Message{Type: TypePing})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Len())
	assert.True(t, bad.isClosed())
	assert.True(t, capture.Contains("dropping subscriber"))

	// A second broadcast must not reach the dropped subscriber even if it
	// would now succeed.
	bad.failWith(nil)
	r.Broadcast(context.Background(), Message{Type: TypePing})
	assert.Empty(t, bad.messages())
	assert.Len(t, good.messages(), 2)
}

func TestLoop_NoSubscribersNoSnapshot(t *testing.T) {
	snap := &countingSnapshot{}
	l := NewLoop(NewRegistry(nil), snap.fn, LoopOptions{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Run(ctx))

	assert.Zero(t, snap.calls.Load())
}

func TestLoop_PingThenUpdate(t *testing.T) {
	reg := NewRegistry(nil)
	sub := newFakeSub("s")
	reg.Add(sub)

	snap := &countingSnapshot{}
	now := time.Unix(1700000000, 0)
	l := NewLoop(reg, snap.fn, LoopOptions{
		Interval: time.Hour,
		Now:      func() time.Time { return now },
	})

	require.NoError(t, l.cycle(context.Background()))

	msgs := sub.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Type: TypePing, Timestamp: 1700000000}, msgs[0])
	assert.Equal(t, TypeSystemUpdate, msgs[1].Type)
	assert.Equal(t, map[string]float64{"cpu_usage": 12.5}, msgs[1].Payload)
	assert.Equal(t, int32(1), snap.calls.Load(), "one snapshot per cycle")
}

func TestLoop_ErrorBacksOff(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Add(newFakeSub("s"))

	snap := &countingSnapshot{err: stderrors.New("pool exhausted")}
	l := NewLoop(reg, snap.fn, LoopOptions{
		Interval:     time.Millisecond,
		ErrorBackoff: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Run(ctx))

	// With a 1ms interval we would see dozens of calls; the backoff holds
	// it to the first one.
	assert.Equal(t, int32(1), snap.calls.Load())
}

func TestLoop_PanicDoesNotEscape(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Add(newFakeSub("s"))

	l := NewLoop(reg, func(context.Context) (any, error) { panic("boom") }, LoopOptions{})

	err := l.cycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLoop_Welcome(t *testing.T) {
	reg := NewRegistry(nil)
	sub := newFakeSub("s")
	reg.Add(sub)

	snap := &countingSnapshot{}
	l := NewLoop(reg, snap.fn, LoopOptions{})
	l.Welcome(context.Background(), sub)

	msgs := sub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeSystemUpdate, msgs[0].Type)
}

func TestLoop_WelcomeDeliveryFailureDrops(t *testing.T) {
	reg := NewRegistry(nil)
	sub := newFakeSub("s")
	sub.failWith(stderrors.New("closed"))
	reg.Add(sub)

	l := NewLoop(reg, (&countingSnapshot{}).fn, LoopOptions{})
	l.Welcome(context.Background(), sub)

	assert.Zero(t, reg.Len())
	assert.True(t, sub.isClosed())
}

func TestLoop_WelcomeSnapshotFailureKeepsSubscriber(t *testing.T) {
	reg := NewRegistry(nil)
	sub := newFakeSub("s")
	reg.Add(sub)

	l := NewLoop(reg, (&countingSnapshot{err: stderrors.New("down")}).fn, LoopOptions{})
	l.Welcome(context.Background(), sub)

	assert.Equal(t, 1, reg.Len())
	assert.Empty(t, sub.messages())
}
