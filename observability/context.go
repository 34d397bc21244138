package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/primesieve/errors"
)

// Run statuses recorded on spans and the run duration histogram.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// RunContext ties one sieve run to its span and metrics.
type RunContext struct {
	RunID     string
	Bound     int // negative when the run was seeded by a custom sequence
	Backend   string
	StartTime time.Time
	Metrics   *SieveMetrics

	span trace.Span
}

// NewRunContext creates a run context. A nil metrics records nothing.
func NewRunContext(runID string, bound int, backend string, metrics *SieveMetrics) *RunContext {
	return &RunContext{
		RunID:     runID,
		Bound:     bound,
		Backend:   backend,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores rc in ctx.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext returns the RunContext stored in ctx, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the sieve.run span and stores rc in the returned context.
func (rc *RunContext) Start(ctx context.Context) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, rc.RunID),
		attribute.String(AttrBackend, rc.Backend),
	}
	if rc.Bound >= 0 {
		attrs = append(attrs, attribute.Int(AttrBound, rc.Bound))
	}
	ctx, rc.span = StartSpan(ctx, SpanSieveRun, trace.WithAttributes(attrs...))
	return WithRunContext(ctx, rc)
}

// End closes the span and records the run's outcome. ctx should not be the
// run's own context, which is usually canceled by now.
func (rc *RunContext) End(ctx context.Context, primes int, err error) {
	status := StatusOK
	if err != nil {
		appErr := errors.Wrap(err)
		status = StatusError
		if appErr.Code == errors.ErrCodeCanceled {
			status = StatusCanceled
		}
		rc.Metrics.RecordError(ctx, string(appErr.Code))
		if rc.span != nil {
			rc.span.SetAttributes(attribute.String(AttrErrorCode, string(appErr.Code)))
			SetSpanError(rc.span, err)
		}
	}

	if rc.span != nil {
		rc.span.SetAttributes(
			attribute.Int(AttrPrimes, primes),
			attribute.String(AttrStatus, status),
		)
		rc.span.End()
	}
	rc.Metrics.RunFinished(ctx, rc.Backend, status, rc.Duration())
}

// Duration returns the time elapsed since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
