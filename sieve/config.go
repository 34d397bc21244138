package sieve

import (
	"time"

	"github.com/kbukum/primesieve/validation"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendPipe   = "pipe"
)

// DefaultBound is the upper bound used when none is configured.
const DefaultBound = 35

// Config configures the sieve.
type Config struct {
	// Bound is the upper bound N. Values below 2, negative ones included,
	// produce no primes.
	Bound int `yaml:"bound" mapstructure:"bound"`
	// Backend selects the channel implementation: memory or pipe.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=memory pipe"`
	// Buffer is the per-channel buffer of the memory backend.
	// 0 hands each value over synchronously.
	Buffer int `yaml:"buffer" mapstructure:"buffer" validate:"min=0"`
	// MaxStages caps the number of live filter stages. 0 means unlimited.
	MaxStages int `yaml:"max_stages" mapstructure:"max_stages" validate:"min=0"`
	// Timeout bounds a whole run. 0 means no deadline.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Bound:   DefaultBound,
		Backend: BackendMemory,
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
}

// Validate checks the configuration. Failures are INVALID_INPUT errors.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
