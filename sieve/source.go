package sieve

import (
	"context"

	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/pipeline"
)

// source writes the seed into the first channel one value at a time and then
// closes its producer, which is what eventually ends the whole chain.
func (r *run) source(seed pipeline.Iterator[int], out channel.Producer[int]) {
	defer r.wg.Done()
	defer out.Close()

	var invalid *errors.AppError
	var sendErr error
	atLeastTwo := func(_ context.Context, v int) error {
		if v < 2 {
			invalid = errors.InvalidInput("seed", "values must be at least 2").WithDetail("value", v)
			return invalid
		}
		return nil
	}
	send := func(ctx context.Context, v int) error {
		if err := out.Send(ctx, v); err != nil {
			sendErr = err
			return err
		}
		return nil
	}

	// Drain closes the seed.
	err := pipeline.Drain(pipeline.Tap(pipeline.From(seed), atLeastTwo), send).Run(r.ctx)
	switch {
	case err == nil:
	case invalid != nil:
		r.fail(invalid)
	case r.tearingDown(err):
	case sendErr != nil:
		r.fail(errors.SendFailed(0, err))
	default:
		r.fail(errors.ReceiveFailed(0, err).WithDetail("reason", "seed"))
	}
}
