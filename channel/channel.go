package channel

import (
	"context"
	"errors"
	"sync/atomic"
)

// Handle errors.
var (
	// ErrClosed is returned when a released handle is used.
	ErrClosed = errors.New("channel: handle already closed")
	// ErrBrokenPipe is returned by Send once the consumer has been closed.
	ErrBrokenPipe = errors.New("channel: broken pipe")
)

// Producer is the sending half of a channel.
type Producer[T any] interface {
	// Send delivers v to the consumer, blocking until it is accepted,
	// the consumer is closed, or ctx is done.
	Send(ctx context.Context, v T) error
	// Clone returns an additional producer handle on the same channel.
	// The consumer sees end-of-stream only once every handle is closed.
	Clone() (Producer[T], error)
	// Close releases this handle. Closing twice is a no-op.
	Close() error
}

// Consumer is the receiving half of a channel.
type Consumer[T any] interface {
	// Receive returns the next value, or (zero, false, nil) at end-of-stream.
	Receive(ctx context.Context) (T, bool, error)
	// Next is Receive under the pipeline.Iterator name.
	Next(ctx context.Context) (T, bool, error)
	// Close releases the consumer. Blocked and future sends fail with ErrBrokenPipe.
	Close() error
}

// Factory creates a new channel.
type Factory[T any] func() (Producer[T], Consumer[T], error)

// Option configures a channel.
type Option func(*options)

type options struct {
	buffer  int
	tracker *Tracker
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.buffer < 0 {
		o.buffer = 0
	}
	return o
}

// WithBuffer sets the number of values an in-memory channel holds before
// Send blocks. Zero gives a synchronous hand-off. Ignored by pipes.
func WithBuffer(n int) Option {
	return func(o *options) { o.buffer = n }
}

// WithTracker counts every handle the channel allocates and releases.
func WithTracker(t *Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// Tracker counts channel handles. A nil Tracker counts nothing.
type Tracker struct {
	allocated atomic.Int64
	released  atomic.Int64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) acquire() {
	if t != nil {
		t.allocated.Add(1)
	}
}

func (t *Tracker) release() {
	if t != nil {
		t.released.Add(1)
	}
}

// Allocated returns the number of handles ever created.
func (t *Tracker) Allocated() int64 {
	if t == nil {
		return 0
	}
	return t.allocated.Load()
}

// Released returns the number of handles closed.
func (t *Tracker) Released() int64 {
	if t == nil {
		return 0
	}
	return t.released.Load()
}

// Open returns the number of handles that are still live.
func (t *Tracker) Open() int64 {
	return t.Allocated() - t.Released()
}
