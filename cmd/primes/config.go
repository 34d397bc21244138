package main

import (
	"github.com/kbukum/primesieve/config"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/observability"
	"github.com/kbukum/primesieve/sieve"
	"github.com/kbukum/primesieve/version"
)

const serviceName = "primes"

// Config is the configuration of the primes command.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Sieve                sieve.Config         `yaml:"sieve" mapstructure:"sieve"`
	Observability        observability.Config `yaml:"observability" mapstructure:"observability"`
}

func defaultConfig() *Config {
	return &Config{
		ServiceConfig: config.ServiceConfig{Name: serviceName, Version: version.Get().Short()},
		Sieve:         sieve.DefaultConfig(),
		Observability: observability.Config{SampleRate: 1},
	}
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Sieve.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section. Failures are INVALID_INPUT errors.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Sieve.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return errors.Validation(err.Error()).WithCause(err)
	}
	return nil
}
