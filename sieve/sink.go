package sieve

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Sink receives primes as stages discover them. Emit is called from each
// stage's own goroutine, one prime per stage, in ascending order.
type Sink interface {
	Emit(ctx context.Context, prime int) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, prime int) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, prime int) error {
	return f(ctx, prime)
}

// WriterSink writes one "prime <value>" line per prime.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit writes the line for prime.
func (s *WriterSink) Emit(_ context.Context, prime int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "prime %d\n", prime)
	return err
}

// chanSink hands primes to a consumer pulling from ch.
type chanSink struct {
	ch chan<- int
}

func (s chanSink) Emit(ctx context.Context, prime int) error {
	select {
	case s.ch <- prime:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
