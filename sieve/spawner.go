package sieve

import (
	"context"

	"github.com/kbukum/primesieve/resilience"
)

// Spawner starts a filter stage in its own execution context. When Spawn
// returns an error fn must not have been started.
type Spawner interface {
	Spawn(ctx context.Context, fn func()) error
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(ctx context.Context, fn func()) error

// Spawn calls f.
func (f SpawnerFunc) Spawn(ctx context.Context, fn func()) error {
	return f(ctx, fn)
}

type goroutineSpawner struct{}

func (goroutineSpawner) Spawn(_ context.Context, fn func()) error {
	go fn()
	return nil
}

type bulkheadSpawner struct {
	bh *resilience.Bulkhead
}

func (s bulkheadSpawner) Spawn(ctx context.Context, fn func()) error {
	return s.bh.Go(ctx, fn)
}

// NewSpawner returns a goroutine spawner. With maxStages > 0 at most that
// many stages run at once and spawning one more fails immediately.
func NewSpawner(maxStages int) Spawner {
	if maxStages <= 0 {
		return goroutineSpawner{}
	}
	return bulkheadSpawner{bh: resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "sieve-stages",
		MaxConcurrent: maxStages,
	})}
}
