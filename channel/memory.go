package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

type memChan[T any] struct {
	values chan T
	eos    chan struct{} // closed when the last producer handle is released
	done   chan struct{} // closed when the consumer is released

	mu        sync.Mutex
	producers int
	tracker   *Tracker
}

// New creates an in-memory channel.
func New[T any](opts ...Option) (Producer[T], Consumer[T]) {
	o := applyOptions(opts)
	ch := &memChan[T]{
		values:    make(chan T, o.buffer),
		eos:       make(chan struct{}),
		done:      make(chan struct{}),
		producers: 1,
		tracker:   o.tracker,
	}
	o.tracker.acquire()
	o.tracker.acquire()
	return &memProducer[T]{ch: ch}, &memConsumer[T]{ch: ch}
}

// MemoryFactory returns a Factory producing in-memory channels.
func MemoryFactory[T any](opts ...Option) Factory[T] {
	return func() (Producer[T], Consumer[T], error) {
		p, c := New[T](opts...)
		return p, c, nil
	}
}

type memProducer[T any] struct {
	ch     *memChan[T]
	closed atomic.Bool
}

func (p *memProducer[T]) Send(ctx context.Context, v T) error {
	if p.closed.Load() {
		return ErrClosed
	}
	select {
	case <-p.ch.done:
		return ErrBrokenPipe
	default:
	}
	select {
	case p.ch.values <- v:
		return nil
	case <-p.ch.done:
		return ErrBrokenPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *memProducer[T]) Clone() (Producer[T], error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	p.ch.mu.Lock()
	p.ch.producers++
	p.ch.mu.Unlock()
	p.ch.tracker.acquire()
	return &memProducer[T]{ch: p.ch}, nil
}

func (p *memProducer[T]) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.ch.mu.Lock()
	p.ch.producers--
	if p.ch.producers == 0 {
		close(p.ch.eos)
	}
	p.ch.mu.Unlock()
	p.ch.tracker.release()
	return nil
}

type memConsumer[T any] struct {
	ch     *memChan[T]
	closed atomic.Bool
}

func (c *memConsumer[T]) Receive(ctx context.Context) (T, bool, error) {
	var zero T
	if c.closed.Load() {
		return zero, false, ErrClosed
	}
	select {
	case v := <-c.ch.values:
		return v, true, nil
	case <-c.ch.eos:
		// Buffered values sent before the last close are still delivered.
		select {
		case v := <-c.ch.values:
			return v, true, nil
		default:
			return zero, false, nil
		}
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (c *memConsumer[T]) Next(ctx context.Context) (T, bool, error) {
	return c.Receive(ctx)
}

func (c *memConsumer[T]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.ch.done)
	c.ch.tracker.release()
	return nil
}
