// Package observability wires OpenTelemetry tracing and metrics into sieve runs.
//
// Both exporters speak OTLP/HTTP and are only installed when enabled in
// configuration. Without them the global no-op providers make every
// recording call free.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("primes"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//	metrics, err := observability.NewSieveMetrics(observability.Meter("primes"))
//
// Each run gets a RunContext that owns the sieve.run span:
//
//	rc := observability.NewRunContext(runID, 35, "memory", metrics)
//	ctx = rc.Start(ctx)
//	defer rc.End(context.WithoutCancel(ctx), primes, err)
package observability
