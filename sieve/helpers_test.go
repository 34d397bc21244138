package sieve

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/primesieve/channel"
	"github.com/kbukum/primesieve/errors"
)

var errInjected = fmt.Errorf("injected failure")

// trialDivision is the reference answer.
func trialDivision(n int) []int {
	var primes []int
	for v := 2; v <= n; v++ {
		prime := true
		for d := 2; d*d <= v; d++ {
			if v%d == 0 {
				prime = false
				break
			}
		}
		if prime {
			primes = append(primes, v)
		}
	}
	return primes
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testContext(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

func newSupervisor(t *testing.T, cfg Config, opts ...Option) *Supervisor {
	t.Helper()
	sv, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sv
}

// failOnCall wraps f so that its failAt-th call fails.
func failOnCall(f channel.Factory[int], failAt int32) channel.Factory[int] {
	var calls atomic.Int32
	return func() (channel.Producer[int], channel.Consumer[int], error) {
		if calls.Add(1) == failAt {
			return nil, nil, errInjected
		}
		return f()
	}
}

// spawnFailOnCall is a goroutine spawner whose failAt-th call fails.
func spawnFailOnCall(failAt int32) Spawner {
	var calls atomic.Int32
	return SpawnerFunc(func(_ context.Context, fn func()) error {
		if calls.Add(1) == failAt {
			return errInjected
		}
		go fn()
		return nil
	})
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) *errors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, err)
	}
	return appErr
}

func requireBalanced(t *testing.T, tr *channel.Tracker) {
	t.Helper()
	if open := tr.Open(); open != 0 {
		t.Errorf("expected every channel handle released, %d still open (allocated %d)", open, tr.Allocated())
	}
}
