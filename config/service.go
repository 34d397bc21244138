package config

import (
	"fmt"

	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/logger"
)

// ServiceConfig contains the fields every executable in this module needs.
// Executables extend it by embedding:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Sieve sieve.Config   `yaml:"sieve" mapstructure:"sieve"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the base ServiceConfig. The method is promoted to
// embedding structs.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills unset fields. Debug mode lowers the log level to debug
// unless a level was configured explicitly.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the base fields. Failures are INVALID_INPUT errors.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.InvalidInput("name", "is required")
	}
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return errors.InvalidInput("environment",
			fmt.Sprintf("must be one of [development, staging, production] (got: %s)", c.Environment))
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.Validation("logging: " + err.Error()).WithCause(err)
	}
	return nil
}
