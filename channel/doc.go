// Package channel provides unidirectional, reference-counted channels that
// connect sieve stages.
//
// A channel is a Producer/Consumer pair. Producers can be cloned; the
// consumer observes end-of-stream only after every producer handle has been
// closed and all buffered values have been received. There is no sentinel
// value. Sending after the consumer has been closed fails with ErrBrokenPipe.
//
// Two backends are available:
//
//   - New: an in-memory channel backed by Go channels
//   - NewPipe: an OS pipe carrying 8-byte big-endian integer frames
//
// Every handle is counted by an optional Tracker so callers can assert that a
// run released everything it allocated.
//
//	tr := channel.NewTracker()
//	out, in := channel.New[int](channel.WithTracker(tr))
//	go func() {
//	    defer out.Close()
//	    _ = out.Send(ctx, 2)
//	}()
//	for v, ok, err := in.Receive(ctx); ok && err == nil; v, ok, err = in.Receive(ctx) {
//	    fmt.Println(v)
//	}
//	in.Close()
package channel
