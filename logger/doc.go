// Package logger provides structured logging for the sieve using zerolog.
//
// Stdout is reserved for the sieve's own output in the CLI, so loggers are
// usually pointed at stderr. Stage loggers carry the run ID and the stage
// depth as structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("supervisor")
//	log.Info("sieve completed", logger.Fields(logger.FieldBound, 35))
package logger
