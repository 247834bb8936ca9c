package async

import (
	"context"
	"sync"

	"github.com/danmuck/tallbag"
	"github.com/danmuck/tallbag/sink"
	"golang.org/x/sync/errgroup"
)

// Collect connects src and blocks until it ends, returning the values
// received and the END reason. When ctx is done first, Collect ends the
// connection itself with ctx.Err() as reason and returns that error.
func Collect[T, M any](
	ctx context.Context,
	src tallbag.Source[T, M],
	meta tallbag.MetaChannel[M],
	opts ...tallbag.Option,
) ([]T, error) {
	var (
		mu  sync.Mutex
		out []T
	)
	finished := make(chan error, 1)
	collector := sink.ForEach[T, M](
		func(v T) {
			mu.Lock()
			out = append(out, v)
			mu.Unlock()
		},
		func(err error) {
			finished <- err
		},
	)

	conn := tallbag.Connect(src, collector, meta, opts...)

	var err error
	select {
	case err = <-finished:
	case <-ctx.Done():
		err = ctx.Err()
		conn.End(err)
	}

	mu.Lock()
	defer mu.Unlock()
	vals := make([]T, len(out))
	copy(vals, out)
	return vals, err
}

// Result is the outcome of one connection run by CollectAll.
type Result[T any] struct {
	Values []T
	Err    error
}

// CollectAll collects every source on its own connection, at most limit at a
// time when limit > 0. Connections are independent: a failure is recorded in
// its Result and does not cancel the others. The returned error is the first
// failure, if any.
func CollectAll[T, M any](
	ctx context.Context,
	limit int,
	srcs []tallbag.Source[T, M],
	opts ...tallbag.Option,
) ([]Result[T], error) {
	results := make([]Result[T], len(srcs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range srcs {
		g.Go(func() error {
			vals, err := Collect(ctx, src, nil, opts...)
			results[i] = Result[T]{Values: vals, Err: err}
			return err
		})
	}
	err := g.Wait()
	return results, err
}
