package channel

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

type backend struct {
	name string
	make func(t *testing.T, tr *Tracker) (Producer[int], Consumer[int])
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T, tr *Tracker) (Producer[int], Consumer[int]) {
			return New[int](WithTracker(tr))
		}},
		{"memory-buffered", func(t *testing.T, tr *Tracker) (Producer[int], Consumer[int]) {
			return New[int](WithTracker(tr), WithBuffer(4))
		}},
		{"pipe", func(t *testing.T, tr *Tracker) (Producer[int], Consumer[int]) {
			p, c, err := NewPipe(WithTracker(tr))
			if err != nil {
				t.Fatalf("NewPipe: %v", err)
			}
			return p, c
		}},
	}
}

func receiveAll(t *testing.T, c Consumer[int]) []int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got []int
	for {
		v, ok, err := c.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if !ok {
			return got
		}
		got = append(got, v)
	}
}

func TestChannel_SendReceiveEndOfStream(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			tr := NewTracker()
			p, c := b.make(t, tr)
			want := []int{2, 3, 5, -7, math.MaxInt32}

			go func() {
				defer p.Close()
				for _, v := range want {
					if err := p.Send(context.Background(), v); err != nil {
						t.Errorf("Send(%d): %v", v, err)
						return
					}
				}
			}()

			got := receiveAll(t, c)
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("value %d: got %d, want %d", i, got[i], want[i])
				}
			}
			if err := c.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if tr.Open() != 0 {
				t.Errorf("expected all handles released, %d open", tr.Open())
			}
			if tr.Allocated() != 2 {
				t.Errorf("expected 2 handles allocated, got %d", tr.Allocated())
			}
		})
	}
}

func TestChannel_CloneDelaysEndOfStream(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			tr := NewTracker()
			p, c := b.make(t, tr)
			clone, err := p.Clone()
			if err != nil {
				t.Fatalf("Clone: %v", err)
			}
			if tr.Open() != 3 {
				t.Fatalf("expected 3 open handles, got %d", tr.Open())
			}

			if err := p.Close(); err != nil {
				t.Fatal(err)
			}

			go func() {
				_ = clone.Send(context.Background(), 11)
				_ = clone.Close()
			}()

			got := receiveAll(t, c)
			if len(got) != 1 || got[0] != 11 {
				t.Errorf("expected [11] from the clone, got %v", got)
			}
			_ = c.Close()
			if tr.Open() != 0 {
				t.Errorf("expected all handles released, %d open", tr.Open())
			}
		})
	}
}

func TestChannel_NoEndOfStreamWhileProducerOpen(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			p, c := b.make(t, nil)
			defer p.Close()
			defer c.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, ok, err := c.Receive(ctx)
			if ok {
				t.Fatal("unexpected value")
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected deadline exceeded, got %v", err)
			}
		})
	}
}

func TestChannel_BrokenPipe(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			p, c := b.make(t, nil)
			defer p.Close()
			if err := c.Close(); err != nil {
				t.Fatal(err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			var err error
			// A buffered channel may not notice on the first send.
			for i := 0; i < 8 && err == nil; i++ {
				err = p.Send(ctx, i)
			}
			if !errors.Is(err, ErrBrokenPipe) {
				t.Errorf("expected ErrBrokenPipe, got %v", err)
			}
		})
	}
}

func TestChannel_BlockedSenderUnblockedByConsumerClose(t *testing.T) {
	for _, b := range backends() {
		if b.name != "memory" {
			continue
		}
		t.Run(b.name, func(t *testing.T) {
			p, c := b.make(t, nil)
			defer p.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- p.Send(context.Background(), 1) }()

			time.Sleep(20 * time.Millisecond)
			_ = c.Close()

			select {
			case err := <-errCh:
				if !errors.Is(err, ErrBrokenPipe) {
					t.Errorf("expected ErrBrokenPipe, got %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("sender stayed blocked after consumer close")
			}
		})
	}
}

func TestChannel_ClosedHandle(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			tr := NewTracker()
			p, c := b.make(t, tr)

			if err := p.Close(); err != nil {
				t.Fatal(err)
			}
			if err := p.Close(); err != nil {
				t.Errorf("second Close should be a no-op, got %v", err)
			}
			if err := p.Send(context.Background(), 1); !errors.Is(err, ErrClosed) {
				t.Errorf("Send on closed producer: expected ErrClosed, got %v", err)
			}
			if _, err := p.Clone(); !errors.Is(err, ErrClosed) {
				t.Errorf("Clone on closed producer: expected ErrClosed, got %v", err)
			}

			if err := c.Close(); err != nil {
				t.Fatal(err)
			}
			if err := c.Close(); err != nil {
				t.Errorf("second Close should be a no-op, got %v", err)
			}
			if _, _, err := c.Receive(context.Background()); !errors.Is(err, ErrClosed) {
				t.Errorf("Receive on closed consumer: expected ErrClosed, got %v", err)
			}
			if tr.Released() != 2 {
				t.Errorf("double close must release once per handle, released=%d", tr.Released())
			}
		})
	}
}

func TestChannel_SendHonoursContext(t *testing.T) {
	p, c := New[int]()
	defer p.Close()
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Send(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPipe_ReceiveInterruptedByContext(t *testing.T) {
	p, c, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, ok, err := c.Receive(ctx)
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got ok=%v err=%v", ok, err)
	}

	// The deadline is cleared, so the pipe is still usable.
	go func() { _ = p.Send(context.Background(), 42) }()
	rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer rcancel()
	v, ok, err := c.Receive(rctx)
	if err != nil || !ok || v != 42 {
		t.Errorf("expected 42 after interruption, got v=%d ok=%v err=%v", v, ok, err)
	}
}

func TestPipe_DeadlineClearedAfterRacingCancel(t *testing.T) {
	p, c, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	defer c.Close()

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go cancel()
		if _, ok, err := c.Receive(ctx); ok || !errors.Is(err, context.Canceled) {
			t.Fatalf("round %d: expected cancellation, got ok=%v err=%v", i, ok, err)
		}

		if err := p.Send(context.Background(), i); err != nil {
			t.Fatalf("round %d: Send: %v", i, err)
		}
		v, ok, err := c.Receive(context.Background())
		if err != nil || !ok || v != i {
			t.Fatalf("round %d: expected %d, got v=%d ok=%v err=%v", i, i, v, ok, err)
		}
	}
}

func TestFactories(t *testing.T) {
	tr := NewTracker()
	for name, f := range map[string]Factory[int]{
		"memory": MemoryFactory[int](WithTracker(tr)),
		"pipe":   PipeFactory(WithTracker(tr)),
	} {
		t.Run(name, func(t *testing.T) {
			p, c, err := f()
			if err != nil {
				t.Fatal(err)
			}
			_ = p.Close()
			if _, ok, _ := c.Next(context.Background()); ok {
				t.Error("expected end-of-stream from an empty channel")
			}
			_ = c.Close()
		})
	}
	if tr.Open() != 0 {
		t.Errorf("expected all handles released, %d open", tr.Open())
	}
}

func TestTracker_Nil(t *testing.T) {
	var tr *Tracker
	tr.acquire()
	tr.release()
	if tr.Open() != 0 || tr.Allocated() != 0 {
		t.Error("nil tracker should count nothing")
	}
}
