// Package sieve computes primes with a dynamically grown chain of concurrent
// filter stages.
//
// A source writes 2..N into the first channel. Every stage reads its first
// value, the witness prime, emits it, spawns a successor on a fresh channel
// and then forwards every later value that is not a multiple of the witness.
// Nothing ever counts values or sends a sentinel: when the source closes its
// producer the end-of-stream ripples down the chain, each stage closing its
// own output only after its input is exhausted.
//
// Stage k emits its witness before stage k+1 exists, so primes are emitted in
// ascending order without any coordination between stages.
//
//	sv, err := sieve.New(sieve.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	err = sv.Run(ctx, 35, os.Stdout) // prime 2 ... prime 31
//
// Any failure below the supervisor (channel creation, spawning, I/O, the
// sink) is fatal: the run is canceled, every stage releases its handles and
// is joined, and the first error is returned. Primes already emitted stay
// emitted.
package sieve
