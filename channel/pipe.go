package channel

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// frameSize is the width of one value on the wire.
const frameSize = 8

type pipeChan struct {
	r *os.File
	w *os.File

	mu      sync.Mutex
	writers int
	tracker *Tracker
}

// NewPipe creates a channel backed by an OS pipe. Values travel as
// fixed-width big-endian int64 frames. It fails when the process runs out
// of file descriptors.
func NewPipe(opts ...Option) (Producer[int], Consumer[int], error) {
	o := applyOptions(opts)
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("channel: create pipe: %w", err)
	}
	ch := &pipeChan{r: r, w: w, writers: 1, tracker: o.tracker}
	o.tracker.acquire()
	o.tracker.acquire()
	return &pipeProducer{ch: ch}, &pipeConsumer{ch: ch}, nil
}

// PipeFactory returns a Factory producing OS pipe channels.
func PipeFactory(opts ...Option) Factory[int] {
	return func() (Producer[int], Consumer[int], error) {
		return NewPipe(opts...)
	}
}

// interruptOn moves a deadline to now once ctx is done. The returned func
// disarms it; if the deadline was already being set it waits for that and
// then clears it, so the file never keeps a stale deadline.
func interruptOn(ctx context.Context, set func(time.Time) error) func() {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = set(time.Now())
	})
	return func() {
		if !stop() {
			<-fired
			_ = set(time.Time{})
		}
	}
}

type pipeProducer struct {
	ch     *pipeChan
	closed atomic.Bool
}

func (p *pipeProducer) Send(ctx context.Context, v int) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var frame [frameSize]byte
	binary.BigEndian.PutUint64(frame[:], uint64(int64(v)))

	disarm := interruptOn(ctx, p.ch.w.SetWriteDeadline)
	_, err := p.ch.w.Write(frame[:])
	disarm()

	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.EPIPE):
		return ErrBrokenPipe
	case ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded):
		return ctx.Err()
	default:
		return fmt.Errorf("channel: write: %w", err)
	}
}

func (p *pipeProducer) Clone() (Producer[int], error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	p.ch.mu.Lock()
	p.ch.writers++
	p.ch.mu.Unlock()
	p.ch.tracker.acquire()
	return &pipeProducer{ch: p.ch}, nil
}

func (p *pipeProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.ch.mu.Lock()
	p.ch.writers--
	last := p.ch.writers == 0
	p.ch.mu.Unlock()
	p.ch.tracker.release()
	if last {
		return p.ch.w.Close()
	}
	return nil
}

type pipeConsumer struct {
	ch     *pipeChan
	closed atomic.Bool
}

func (c *pipeConsumer) Receive(ctx context.Context) (int, bool, error) {
	if c.closed.Load() {
		return 0, false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	var frame [frameSize]byte

	disarm := interruptOn(ctx, c.ch.r.SetReadDeadline)
	_, err := io.ReadFull(c.ch.r, frame[:])
	disarm()

	switch {
	case err == nil:
		return int(int64(binary.BigEndian.Uint64(frame[:]))), true, nil
	case errors.Is(err, io.EOF):
		return 0, false, nil
	case ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded):
		return 0, false, ctx.Err()
	default:
		return 0, false, fmt.Errorf("channel: read: %w", err)
	}
}

func (c *pipeConsumer) Next(ctx context.Context) (int, bool, error) {
	return c.Receive(ctx)
}

func (c *pipeConsumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.ch.tracker.release()
	return c.ch.r.Close()
}
