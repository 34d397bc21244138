package sieve

import (
	"context"
	"sync"
)

// primeIterator pulls primes from a running pipeline.
type primeIterator struct {
	r        *run
	primes   <-chan int
	finished chan struct{}
	err      error // valid once finished is closed

	closeOnce sync.Once
}

func newPrimeIterator(r *run, primes chan int) *primeIterator {
	it := &primeIterator{
		r:        r,
		primes:   primes,
		finished: make(chan struct{}),
	}
	go func() {
		it.err = r.wait()
		close(primes)
		close(it.finished)
	}()
	return it
}

// Next returns the next prime, or (0, false, err) once the run has finished,
// where err is the run's fatal error or nil.
func (it *primeIterator) Next(ctx context.Context) (int, bool, error) {
	select {
	case p, ok := <-it.primes:
		if ok {
			return p, true, nil
		}
		<-it.finished
		return 0, false, it.err
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

// Close cancels the run if it is still going and waits for every stage to
// terminate. It is safe to call more than once.
func (it *primeIterator) Close() error {
	it.closeOnce.Do(it.r.stop)
	<-it.finished
	return nil
}
