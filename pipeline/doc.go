// Package pipeline provides composable, pull-based data pipeline operators.
//
// Pipelines are lazy. No work happens until values are pulled via Collect or
// a Drain, and each stage pulls from the previous one on demand, so a slow
// consumer naturally holds back its producer.
//
// The sieve builds on this package in four places: Range seeds the first
// channel, the source checks the seed with Drain(Tap(From(seed))), each
// filter stage forwards with Drain(Filter(From(input))), and the lazy prime
// sequence is an Iterator.
//
// # Operators
//
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value (logging, metrics)
//   - Concat: join pipelines sequentially, opening each one lazily
//
// # Usage
//
//	odd := pipeline.Filter(pipeline.Range(2, 35), func(n int) bool { return n%2 != 0 })
//	err := pipeline.Drain(odd, out.Send).Run(ctx)
package pipeline
