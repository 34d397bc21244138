package pipeline

import "context"

// Filter keeps only values that satisfy keep. Rejected values are consumed
// from the source and dropped.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &filterIter[T]{source: p.create(ctx), keep: keep}
		},
	}
}

// Tap calls fn for each value before passing it on unchanged. An error from
// fn ends the pipeline. The sieve source uses it to reject bad seed values.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &tapIter[T]{source: p.create(ctx), fn: fn}
		},
	}
}

// Concat yields every value of each pipeline in turn. A pipeline's iterator
// is created only once the previous one is exhausted.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &concatIter[T]{pipelines: pipelines, ctx: ctx}
		},
	}
}

type filterIter[T any] struct {
	source Iterator[T]
	keep   func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		v, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return v, false, err
		}
		if it.keep(v) {
			return v, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type tapIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) error
}

func (it *tapIter[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return v, false, err
	}
	if err := it.fn(ctx, v); err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func (it *tapIter[T]) Close() error { return it.source.Close() }

type concatIter[T any] struct {
	pipelines []*Pipeline[T]
	ctx       context.Context
	current   Iterator[T]
	opened    []Iterator[T]
}

func (it *concatIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		if it.current == nil {
			if len(it.pipelines) == 0 {
				var zero T
				return zero, false, nil
			}
			it.current = it.pipelines[0].create(it.ctx)
			it.pipelines = it.pipelines[1:]
			it.opened = append(it.opened, it.current)
		}
		v, ok, err := it.current.Next(ctx)
		if err != nil || ok {
			return v, ok, err
		}
		it.current = nil
	}
}

// Close closes every iterator that was created and returns the first error.
func (it *concatIter[T]) Close() error {
	var firstErr error
	for _, iter := range it.opened {
		if err := iter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	it.opened = nil
	it.pipelines = nil
	return firstErr
}
