package pipeline

import "context"

// result carries a value or error from a worker.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// Prefetch applies fn to upcoming values with up to n workers ahead of the
// consumer. Unlike a worker pool, results come out in source order.
func Prefetch[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n <= 0 {
		n = 1
	}
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			source := p.create(ctx)
			workerCtx, cancel := context.WithCancel(ctx)
			// Each pending value gets its own single-slot channel; the
			// futures queue bounds how far workers run ahead.
			futures := make(chan chan result[O], n)

			go func() {
				defer close(futures)
				for {
					val, ok, err := source.Next(workerCtx)
					if err != nil {
						f := make(chan result[O], 1)
						f <- result[O]{err: err}
						select {
						case futures <- f:
						case <-workerCtx.Done():
						}
						return
					}
					if !ok {
						return
					}

					f := make(chan result[O], 1)
					select {
					case futures <- f:
					case <-workerCtx.Done():
						return
					}
					go func(v I) {
						o, err := fn(workerCtx, v)
						f <- result[O]{val: o, ok: err == nil, err: err}
					}(val)
				}
			}()

			return &prefetchIter[O]{
				futures: futures,
				closer: func() error {
					cancel()
					return source.Close()
				},
			}
		},
	}
}

type prefetchIter[O any] struct {
	futures <-chan chan result[O]
	closer  func() error
}

func (it *prefetchIter[O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	var f chan result[O]
	select {
	case next, open := <-it.futures:
		if !open {
			return zero, false, nil
		}
		f = next
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
	select {
	case r := <-f:
		return r.val, r.ok, r.err
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *prefetchIter[O]) Close() error { return it.closer() }
