package sieve

import (
	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/logger"
	"github.com/kbukum/primesieve/observability"
)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

// WithTracker counts every channel handle the supervisor's runs allocate.
// It is ignored when WithChannelFactory is also given.
func WithTracker(t *channel.Tracker) Option {
	return func(s *Supervisor) { s.tracker = t }
}

// WithMetrics records run metrics.
func WithMetrics(m *observability.SieveMetrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// WithChannelFactory replaces the configured backend.
func WithChannelFactory(f channel.Factory[int]) Option {
	return func(s *Supervisor) { s.factory = f }
}

// WithSpawner replaces the default goroutine spawner and its stage limit.
func WithSpawner(sp Spawner) Option {
	return func(s *Supervisor) { s.spawner = sp }
}
