package sieve

import (
	"context"

	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/logger"
	"github.com/kbukum/primesieve/pipeline"
)

// stage is one filter in the chain. It owns in from the start and, once
// armed, the producer of its successor's channel. Every return path releases
// both.
func (r *run) stage(depth int, in channel.Consumer[int]) {
	r.metrics.StageStarted(r.ctx)
	defer r.metrics.StageStopped(r.ctx)
	log := r.log.WithFields(logger.Fields(logger.FieldStage, depth))

	witness, ok, err := in.Receive(r.ctx)
	if err != nil {
		if !r.tearingDown(err) {
			r.fail(errors.ReceiveFailed(depth, err))
		}
		_ = in.Close()
		return
	}
	if !ok {
		_ = in.Close()
		log.Debug("end of stream before witness")
		return
	}

	if err := r.sink.Emit(r.ctx, witness); err != nil {
		if !r.tearingDown(err) {
			r.fail(errors.SinkFailed(witness, err))
		}
		_ = in.Close()
		return
	}
	r.primes.Add(1)
	r.metrics.PrimeEmitted(r.ctx)
	log.Debug("witness emitted", logger.Fields(logger.FieldWitness, witness))

	out, next, err := r.newChannel()
	if err != nil {
		r.fail(errors.ChannelCreationFailed(depth, err))
		_ = in.Close()
		return
	}
	successor := make(chan struct{})
	if err := r.spawnStage(depth+1, next, successor); err != nil {
		r.fail(errors.SpawnFailed(depth+1, err))
		_ = out.Close()
		_ = next.Close()
		_ = in.Close()
		return
	}

	var forwarded, discarded int64
	var sendErr error
	notMultiple := func(v int) bool {
		if v%witness != 0 {
			return true
		}
		discarded++
		return false
	}
	send := func(ctx context.Context, v int) error {
		if err := out.Send(ctx, v); err != nil {
			sendErr = err
			return err
		}
		forwarded++
		return nil
	}

	// Drain closes in when forwarding ends, whatever the reason.
	err = pipeline.Drain(pipeline.Filter(pipeline.From[int](in), notMultiple), send).Run(r.ctx)
	if err != nil && !r.tearingDown(err) {
		if sendErr != nil {
			r.fail(errors.SendFailed(depth, err))
		} else {
			r.fail(errors.ReceiveFailed(depth, err))
		}
	}

	_ = out.Close()
	<-successor

	r.metrics.ValuesFiltered(r.ctx, forwarded, discarded)
	log.Debug("stage finished", logger.Fields(
		logger.FieldWitness, witness,
		logger.FieldForwarded, forwarded,
		logger.FieldDiscarded, discarded,
	))
}
