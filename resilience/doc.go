// Package resilience provides concurrency limiting for the sieve.
//
// Bulkhead caps the number of goroutines holding a slot. The sieve's default
// spawner starts every filter stage through Bulkhead.Go when a stage limit is
// configured, so exceeding the limit surfaces as a spawn failure instead of
// unbounded growth.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "stages", MaxConcurrent: 64})
//	if err := bh.Go(ctx, stage.run); err != nil {
//	    // no slot: report the spawn failure
//	}
package resilience
