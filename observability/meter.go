package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/primesieve/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment.
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure disables TLS.
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The provider must be shut down on exit; shutdown performs a final export,
// which matters for a short-lived CLI.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// SieveMetrics holds the instruments recorded by sieve runs.
// A nil *SieveMetrics records nothing.
type SieveMetrics struct {
	stagesSpawned   metric.Int64Counter
	stagesActive    metric.Int64UpDownCounter
	primesEmitted   metric.Int64Counter
	valuesForwarded metric.Int64Counter
	valuesDiscarded metric.Int64Counter
	runDuration     metric.Float64Histogram
	errorTotal      metric.Int64Counter
}

// NewSieveMetrics creates the sieve instruments on meter.
func NewSieveMetrics(meter metric.Meter) (*SieveMetrics, error) {
	m := &SieveMetrics{}
	var err error

	if m.stagesSpawned, err = meter.Int64Counter("sieve.stages.spawned",
		metric.WithDescription("Filter stages started"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.stages.spawned counter: %w", err)
	}
	if m.stagesActive, err = meter.Int64UpDownCounter("sieve.stages.active",
		metric.WithDescription("Filter stages currently running"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.stages.active gauge: %w", err)
	}
	if m.primesEmitted, err = meter.Int64Counter("sieve.primes.emitted",
		metric.WithDescription("Primes written to the output sink"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.primes.emitted counter: %w", err)
	}
	if m.valuesForwarded, err = meter.Int64Counter("sieve.values.forwarded",
		metric.WithDescription("Values passed on to the next stage"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.values.forwarded counter: %w", err)
	}
	if m.valuesDiscarded, err = meter.Int64Counter("sieve.values.discarded",
		metric.WithDescription("Values dropped as multiples of a stage's witness"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.values.discarded counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("sieve.run.duration",
		metric.WithDescription("Duration of sieve runs in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.run.duration histogram: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("sieve.errors",
		metric.WithDescription("Fatal sieve errors by code"),
	); err != nil {
		return nil, fmt.Errorf("creating sieve.errors counter: %w", err)
	}
	return m, nil
}

// StageStarted records a stage that began running.
func (m *SieveMetrics) StageStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.stagesSpawned.Add(ctx, 1)
	m.stagesActive.Add(ctx, 1)
}

// StageStopped records a stage that terminated.
func (m *SieveMetrics) StageStopped(ctx context.Context) {
	if m == nil {
		return
	}
	m.stagesActive.Add(ctx, -1)
}

// PrimeEmitted records one prime reaching the sink.
func (m *SieveMetrics) PrimeEmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.primesEmitted.Add(ctx, 1)
}

// ValuesFiltered records a stage's forwarded and discarded totals.
func (m *SieveMetrics) ValuesFiltered(ctx context.Context, forwarded, discarded int64) {
	if m == nil {
		return
	}
	if forwarded > 0 {
		m.valuesForwarded.Add(ctx, forwarded)
	}
	if discarded > 0 {
		m.valuesDiscarded.Add(ctx, discarded)
	}
}

// RunFinished records a completed run.
func (m *SieveMetrics) RunFinished(ctx context.Context, backend, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
	))
}

// RecordError records a fatal error by code.
func (m *SieveMetrics) RecordError(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
