// Package errors provides the structured error type used across the sieve.
// Every fatal failure of a run is reported as an *AppError carrying a
// machine-readable code and the process exit code the CLI should use.
package errors
