package sieve

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/logger"
	"github.com/kbukum/primesieve/observability"
	"github.com/kbukum/primesieve/pipeline"
)

// Supervisor builds and joins sieve pipelines. It is safe for concurrent
// use; every call starts an independent run.
type Supervisor struct {
	cfg     Config
	log     *logger.Logger
	tracker *channel.Tracker
	metrics *observability.SieveMetrics
	factory channel.Factory[int]
	spawner Spawner
}

// New creates a Supervisor from cfg.
func New(cfg Config, opts ...Option) (*Supervisor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Supervisor{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.WithComponent("sieve")

	if s.factory == nil {
		copts := []channel.Option{channel.WithTracker(s.tracker)}
		switch cfg.Backend {
		case BackendPipe:
			s.factory = channel.PipeFactory(copts...)
		default:
			copts = append(copts, channel.WithBuffer(cfg.Buffer))
			s.factory = channel.MemoryFactory[int](copts...)
		}
	}
	return s, nil
}

// Config returns the supervisor's configuration.
func (s *Supervisor) Config() Config {
	return s.cfg
}

// Run sieves 2..n and writes "prime <value>" lines to w as stages discover
// them. It returns once every stage has terminated, with the first fatal
// error if any.
func (s *Supervisor) Run(ctx context.Context, n int, w io.Writer) error {
	r, err := s.start(ctx, pipeline.Range(2, n).Iter(ctx), n, NewWriterSink(w))
	if err != nil {
		return err
	}
	return r.wait()
}

// Sieve returns the primes ≤ n as a lazy, non-restartable sequence in
// ascending order. When the sequence is exhausted Next reports the run's
// fatal error, if any. The caller must drain or Close the iterator; Close
// cancels the run and joins every stage.
func (s *Supervisor) Sieve(ctx context.Context, n int) (pipeline.Iterator[int], error) {
	return s.sieve(ctx, pipeline.Range(2, n).Iter(ctx), n)
}

// SieveFrom is Sieve over a custom seed sequence instead of 2..n. Seed values
// must be at least 2; the seed is closed when the source finishes with it.
func (s *Supervisor) SieveFrom(ctx context.Context, seed pipeline.Iterator[int]) (pipeline.Iterator[int], error) {
	return s.sieve(ctx, seed, -1)
}

// Primes collects the primes ≤ n.
func (s *Supervisor) Primes(ctx context.Context, n int) ([]int, error) {
	it, err := s.Sieve(ctx, n)
	if err != nil {
		return nil, err
	}
	return pipeline.Collect(ctx, pipeline.From(it))
}

func (s *Supervisor) sieve(ctx context.Context, seed pipeline.Iterator[int], bound int) (pipeline.Iterator[int], error) {
	out := make(chan int)
	r, err := s.start(ctx, seed, bound, chanSink{ch: out})
	if err != nil {
		return nil, err
	}
	return newPrimeIterator(r, out), nil
}

// start builds the first channel, the source and the first stage. Failing
// to create either the channel or the first stage is reported here; every
// later failure is reported by wait.
func (s *Supervisor) start(ctx context.Context, seed pipeline.Iterator[int], bound int, sink Sink) (*run, error) {
	r := s.newRun(ctx, bound, sink)
	log := r.log

	log.Info("sieve started", logger.Fields(logger.FieldBound, bound, logger.FieldBackend, s.cfg.Backend))

	out, in, err := r.newChannel()
	if err != nil {
		_ = seed.Close()
		r.fail(errors.ChannelCreationFailed(0, err))
		return nil, r.wait()
	}

	if err := r.spawnStage(1, in, nil); err != nil {
		_ = out.Close()
		_ = in.Close()
		_ = seed.Close()
		r.fail(errors.SpawnFailed(1, err))
		return nil, r.wait()
	}

	r.wg.Add(1)
	go r.source(seed, out)
	return r, nil
}

func (s *Supervisor) newRun(parent context.Context, bound int, sink Sink) *run {
	ctx, stopTimeout := parent, context.CancelFunc(func() {})
	if s.cfg.Timeout > 0 {
		ctx, stopTimeout = context.WithTimeout(parent, s.cfg.Timeout)
	}
	ctx, cancel := context.WithCancelCause(ctx)

	id := uuid.NewString()
	spawner := s.spawner
	if spawner == nil {
		spawner = NewSpawner(s.cfg.MaxStages)
	}

	r := &run{
		id:          id,
		cancel:      cancel,
		stopTimeout: stopTimeout,
		sink:        sink,
		factory:     s.factory,
		spawner:     spawner,
		metrics:     s.metrics,
		log:         s.log.WithFields(logger.Fields(logger.FieldRunID, id)),
	}
	r.rc = observability.NewRunContext(id, bound, s.cfg.Backend, s.metrics)
	r.ctx = r.rc.Start(ctx)
	return r
}
