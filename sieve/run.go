package sieve

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/logger"
	"github.com/kbukum/primesieve/observability"
)

// errStopped is the cancel cause used when the consumer abandons a run.
var errStopped = stderrors.New("sieve: stopped by consumer")

// run is one pipeline from source to last stage.
type run struct {
	id          string
	ctx         context.Context
	cancel      context.CancelCauseFunc
	stopTimeout context.CancelFunc

	sink    Sink
	factory channel.Factory[int]
	spawner Spawner
	metrics *observability.SieveMetrics
	rc      *observability.RunContext
	log     *logger.Logger

	wg          sync.WaitGroup
	primes      atomic.Int64
	interrupted atomic.Bool

	errOnce sync.Once
	err     *errors.AppError

	waitOnce sync.Once
	result   error
}

// fail records the run's first fatal error and cancels the run.
func (r *run) fail(err *errors.AppError) {
	r.errOnce.Do(func() {
		r.err = err
		r.log.WithError(err).Error("sieve failed", logger.Fields(logger.FieldCode, string(err.Code)))
	})
	r.cancel(err)
}

// stop cancels the run on behalf of a consumer that no longer wants primes.
func (r *run) stop() {
	r.cancel(errStopped)
}

// tearingDown reports whether err is an expected consequence of the run
// shutting down, which stages treat as end-of-stream.
func (r *run) tearingDown(err error) bool {
	if r.ctx.Err() != nil {
		r.interrupted.Store(true)
		return true
	}
	return stderrors.Is(err, channel.ErrBrokenPipe)
}

func (r *run) newChannel() (channel.Producer[int], channel.Consumer[int], error) {
	return r.factory()
}

// spawnStage starts the stage at depth on in and closes done, if given, when
// it terminates. On error the stage was not started and in is still owned by
// the caller.
func (r *run) spawnStage(depth int, in channel.Consumer[int], done chan struct{}) error {
	r.wg.Add(1)
	err := r.spawner.Spawn(r.ctx, func() {
		defer r.wg.Done()
		if done != nil {
			defer close(done)
		}
		r.stage(depth, in)
	})
	if err != nil {
		r.wg.Done()
	}
	return err
}

// wait joins the source and every stage, then reports the outcome once.
func (r *run) wait() error {
	r.waitOnce.Do(func() {
		r.wg.Wait()

		var err *errors.AppError
		switch {
		case r.err != nil:
			err = r.err
		case r.interrupted.Load():
			if cause := context.Cause(r.ctx); cause != errStopped {
				err = errors.Wrap(cause)
			}
		}

		primes := int(r.primes.Load())
		r.cancel(nil)
		r.stopTimeout()
		r.rc.End(context.WithoutCancel(r.ctx), primes, errOrNil(err))

		fields := logger.Fields(logger.FieldPrimes, primes)
		for k, v := range logger.DurationFields("sieve", r.rc.Duration()) {
			fields[k] = v
		}
		if err != nil {
			r.log.Warn("sieve aborted", fields)
			r.result = err
			return
		}
		r.log.Info("sieve completed", fields)
	})
	return r.result
}

func errOrNil(err *errors.AppError) error {
	if err == nil {
		return nil
	}
	return err
}
