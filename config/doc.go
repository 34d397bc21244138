// Package config loads executable configuration with Viper.
//
// Sources are layered, lowest priority first:
//
//  1. config.yml, found under ./cmd/<service>/ or ./config/ unless given explicitly
//  2. a .env file (godotenv) and the process environment
//  3. command-line flags the user actually set (pflag)
//
// Environment variables map onto nested keys by splitting on underscores,
// so SIEVE_BOUND sets sieve.bound.
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("primes", &cfg,
//	    config.WithConfigFile(path),
//	    config.WithFlags(flags, map[string]string{"bound": "sieve.bound"}),
//	)
package config
