package sieve

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/logger"
	"github.com/kbukum/primesieve/observability"
)

func newTestMetrics(t *testing.T) (*observability.SieveMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observability.NewSieveMetrics(mp.Meter("sieve-test"))
	if err != nil {
		t.Fatalf("NewSieveMetrics: %v", err)
	}
	return m, reader
}

func metricSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func runSpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range sr.Ended() {
		if s.Name() == observability.SpanSieveRun {
			return s
		}
	}
	t.Fatalf("no %s span recorded", observability.SpanSieveRun)
	return nil
}

func attrOf(s sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestMetrics_Run(t *testing.T) {
	m, reader := newTestMetrics(t)
	sv := newSupervisor(t, DefaultConfig(), WithMetrics(m))

	if err := sv.Run(testContext(t, 10*time.Second), 35, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	sums := metricSums(t, reader)
	tests := []struct {
		name string
		want int64
	}{
		{"sieve.primes.emitted", 11},
		// 11 armed stages plus the one that sees end-of-stream.
		{"sieve.stages.spawned", 12},
		{"sieve.stages.active", 0},
		// Every composite in 2..35 is discarded exactly once.
		{"sieve.values.discarded", 23},
		{"sieve.errors", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if sums[tc.name] != tc.want {
				t.Errorf("%s = %d, want %d", tc.name, sums[tc.name], tc.want)
			}
		})
	}
}

func TestMetrics_Failure(t *testing.T) {
	m, reader := newTestMetrics(t)
	sv := newSupervisor(t, DefaultConfig(), WithMetrics(m), WithSpawner(spawnFailOnCall(3)))

	if _, err := sv.Primes(testContext(t, 10*time.Second), 35); err == nil {
		t.Fatal("expected failure")
	}
	sums := metricSums(t, reader)
	if sums["sieve.errors"] != 1 {
		t.Errorf("expected one recorded error, got %d", sums["sieve.errors"])
	}
	if sums["sieve.stages.active"] != 0 {
		t.Errorf("expected no active stages, got %d", sums["sieve.stages.active"])
	}
}

// sendFailsProducer rejects every value it is asked to send.
type sendFailsProducer struct {
	channel.Producer[int]
}

func (p sendFailsProducer) Send(context.Context, int) error { return errInjected }

func TestMetrics_FailedSendNotForwarded(t *testing.T) {
	m, reader := newTestMetrics(t)
	tr := channel.NewTracker()
	mem := channel.MemoryFactory[int](channel.WithTracker(tr))
	var calls atomic.Int32
	// The second channel links the first stage to its successor.
	factory := func() (channel.Producer[int], channel.Consumer[int], error) {
		p, c, err := mem()
		if err == nil && calls.Add(1) == 2 {
			return sendFailsProducer{p}, c, nil
		}
		return p, c, err
	}
	sv := newSupervisor(t, DefaultConfig(), WithMetrics(m), WithChannelFactory(factory))

	var buf bytes.Buffer
	err := sv.Run(testContext(t, 10*time.Second), 35, &buf)
	appErr := requireCode(t, err, errors.ErrCodeSend)
	if appErr.Details["stage"] != 1 {
		t.Errorf("expected stage 1 to fail, got %v", appErr.Details["stage"])
	}
	if buf.String() != "prime 2\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if got := metricSums(t, reader)["sieve.values.forwarded"]; got != 0 {
		t.Errorf("a rejected value must not count as forwarded, got %d", got)
	}
	requireBalanced(t, tr)
}

func TestTracing_RunSpan(t *testing.T) {
	sr := withRecorder(t)
	sv := newSupervisor(t, DefaultConfig())

	if err := sv.Run(testContext(t, 10*time.Second), 35, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	span := runSpan(t, sr)
	want := map[string]string{
		observability.AttrBound:   "35",
		observability.AttrBackend: BackendMemory,
		observability.AttrPrimes:  "11",
		observability.AttrStatus:  observability.StatusOK,
	}
	for key, v := range want {
		got, ok := attrOf(span, key)
		if !ok || got != v {
			t.Errorf("attribute %s = %q (present %v), want %q", key, got, ok, v)
		}
	}
	if span.Status().Code == codes.Error {
		t.Error("successful run should not be marked as an error")
	}
}

func TestTracing_FailedRunSpan(t *testing.T) {
	sr := withRecorder(t)
	sv := newSupervisor(t, DefaultConfig())

	err := sv.Run(testContext(t, 10*time.Second), 35, &failingWriter{after: 1})
	if err == nil {
		t.Fatal("expected sink failure")
	}

	span := runSpan(t, sr)
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status().Code)
	}
	if got, _ := attrOf(span, observability.AttrErrorCode); got != "SINK_FAILED" {
		t.Errorf("expected error code SINK_FAILED, got %q", got)
	}
}

func TestLogging_RunFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "primes", &buf)
	sv := newSupervisor(t, DefaultConfig(), WithLogger(log))

	if err := sv.Run(testContext(t, 10*time.Second), 10, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	var witnesses int
	runIDs := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if entry[logger.FieldComponent] != "sieve" {
			t.Errorf("expected component sieve, got %v", entry[logger.FieldComponent])
		}
		if id, ok := entry[logger.FieldRunID].(string); ok {
			runIDs[id] = true
		}
		if entry["message"] == "witness emitted" {
			witnesses++
		}
	}
	if witnesses != 4 {
		t.Errorf("expected 4 witness lines, got %d", witnesses)
	}
	if len(runIDs) != 1 {
		t.Errorf("expected a single run id across all lines, got %v", runIDs)
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	for _, p := range []int{2, 3, 5} {
		if err := s.Emit(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}
	if buf.String() != "prime 2\nprime 3\nprime 5\n" {
		t.Errorf("unexpected output %q", buf.String())
	}

	var got []int
	fn := SinkFunc(func(_ context.Context, p int) error {
		got = append(got, p)
		return nil
	})
	_ = fn.Emit(context.Background(), 7)
	if len(got) != 1 || got[0] != 7 {
		t.Errorf("SinkFunc did not forward, got %v", got)
	}
}

func TestNewSpawner(t *testing.T) {
	if _, ok := NewSpawner(0).(goroutineSpawner); !ok {
		t.Error("expected unlimited goroutine spawner")
	}
	sp := NewSpawner(1)
	block := make(chan struct{})
	if err := sp.Spawn(context.Background(), func() { <-block }); err != nil {
		t.Fatal(err)
	}
	if err := sp.Spawn(context.Background(), func() {}); err == nil {
		t.Error("expected second spawn to be refused")
	}
	close(block)
}
